package normalize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/profile-featurizer/internal/schema"
	"github.com/spigell/profile-featurizer/internal/translate"
	"github.com/spigell/profile-featurizer/internal/utils"
)

const (
	// Missing replaces null cells.
	Missing = "none"
	// TokenSeparator joins tokens of a normalized cell.
	TokenSeparator = ","
)

var (
	reSpaces = regexp.MustCompile(`\s+`)

	reEmploymentType = regexp.MustCompile(`(Permanent|Full-time|Internship|Part-time)`)

	reNameNoise     = regexp.MustCompile(`[^0-9a-zA-Z\s]+`)
	rePositionNoise = regexp.MustCompile(`[^0-9a-zA-Z\s']+`)
)

type rules struct {
	denylist *regexp.Regexp
	// noise is stripped after translation. Nil keeps the whole phrase.
	noise      *regexp.Regexp
	noiseWith  string
	splitWords bool
}

var policies = map[schema.Policy]rules{
	schema.PolicyCompany:   {denylist: reEmploymentType},
	schema.PolicyEducation: {},
	schema.PolicyName:      {noise: reNameNoise},
	schema.PolicyPosition:  {noise: rePositionNoise, noiseWith: " ", splitWords: true},
}

// Normalizer cleans free-text cells and translates them to one language.
type Normalizer struct {
	translator translate.Translator
	target     language.Tag
	logger     *zap.Logger
}

func New(translator translate.Translator, target language.Tag, logger *zap.Logger) *Normalizer {
	if translator == nil {
		translator = translate.Identity{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{translator: translator, target: target, logger: logger}
}

// Normalize applies policy to one cell. PolicyNone returns the cell untouched.
func (n *Normalizer) Normalize(ctx context.Context, policy schema.Policy, cell *string) (*string, error) {
	if policy == schema.PolicyNone || policy == "" {
		return cell, nil
	}

	r, ok := policies[policy]
	if !ok {
		return nil, fmt.Errorf("unknown normalize policy %q", policy)
	}

	if cell == nil {
		missing := Missing
		return &missing, nil
	}
	text := *cell

	if r.denylist != nil {
		text = r.denylist.ReplaceAllString(text, "")
	}
	text = collapse(text)

	translated, err := n.translator.Translate(ctx, text, n.target)
	if err != nil {
		return nil, fmt.Errorf("translate %q: %w", utils.TruncateForLog(text, 40), err)
	}
	text = cases.Lower(n.target).String(translated)

	if r.noise != nil {
		text = strings.ReplaceAll(text, TokenSeparator, " ")
		text = collapse(r.noise.ReplaceAllString(text, r.noiseWith))
		tokens := strings.Fields(text)
		if r.splitWords {
			tokens = splitWords(tokens)
		}
		text = strings.Join(tokens, TokenSeparator)
	} else {
		text = collapse(text)
	}

	n.logger.Debug("normalized cell",
		zap.String("policy", string(policy)),
		zap.String("value", utils.TruncateForLog(text, 80)),
	)

	return &text, nil
}

// NormalizeColumn normalizes every cell of a column in place order.
func (n *Normalizer) NormalizeColumn(ctx context.Context, policy schema.Policy, cells []*string) ([]*string, error) {
	out := make([]*string, len(cells))
	for i, cell := range cells {
		v, err := n.Normalize(ctx, policy, cell)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func collapse(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// splitWords separates contractions and possessives the way a treebank
// word tokenizer does: "don't" -> "do", "n't"; "engineer's" -> "engineer", "'s".
func splitWords(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		switch {
		case f == "n't" || strings.HasPrefix(f, "'"):
			out = append(out, f)
		case len(f) > 3 && strings.HasSuffix(f, "n't"):
			out = append(out, f[:len(f)-3], "n't")
		default:
			if idx := strings.Index(f, "'"); idx > 0 {
				out = append(out, f[:idx], f[idx:])
				continue
			}
			out = append(out, f)
		}
	}
	return out
}
