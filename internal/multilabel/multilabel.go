package multilabel

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/schema"
)

// ErrUninitialized is returned when an encoder is used before Fit or Restore.
var ErrUninitialized = errors.New("encoder has no vocabulary")

const tokenSeparator = ","

// Vocabulary is a sorted set of distinct tokens.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// NewVocabulary sorts and deduplicates tokens. Empty tokens are dropped.
func NewVocabulary(tokens []string) Vocabulary {
	seen := make(map[string]struct{}, len(tokens))
	sorted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, t := range sorted {
		index[t] = i
	}
	return Vocabulary{tokens: sorted, index: index}
}

// Tokens returns a copy of the vocabulary in column order.
func (v Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

func (v Vocabulary) Len() int {
	return len(v.tokens)
}

// Index returns the position of token, or false when it is unknown.
func (v Vocabulary) Index(token string) (int, bool) {
	i, ok := v.index[token]
	return i, ok
}

// Tokenize reduces one cell to its token list. Category cells are a single
// token; token cells are split on commas. Null cells carry no tokens.
func Tokenize(mode schema.Encoding, cell *string) []string {
	if cell == nil {
		return nil
	}
	if mode == schema.EncodingCategory {
		if *cell == "" {
			return nil
		}
		return []string{*cell}
	}

	parts := strings.Split(*cell, tokenSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Fit collects the vocabulary of every cell of every column of frame.
func Fit(mode schema.Encoding, frame *dataset.Frame) Vocabulary {
	var tokens []string
	for _, col := range frame.Columns {
		for _, cell := range frame.Column(col) {
			tokens = append(tokens, Tokenize(mode, cell)...)
		}
	}
	return NewVocabulary(tokens)
}

// Transform encodes every column of frame over voc. Each input column yields
// voc.Len() output columns named <column>/<token>. Unknown tokens are ignored.
func Transform(voc Vocabulary, mode schema.Encoding, frame *dataset.Frame) *dataset.Matrix {
	width := voc.Len()
	columns := make([]string, 0, width*len(frame.Columns))
	for _, col := range frame.Columns {
		for _, t := range voc.tokens {
			columns = append(columns, col+"/"+t)
		}
	}

	out := dataset.NewMatrix(columns, frame.Len())
	for c, col := range frame.Columns {
		for r, cell := range frame.Column(col) {
			for _, t := range Tokenize(mode, cell) {
				if i, ok := voc.Index(t); ok {
					out.Rows[r][c*width+i] = 1
				}
			}
		}
	}
	return out
}

// Encoder owns the vocabulary of one feature group.
type Encoder struct {
	mode  schema.Encoding
	vocab *Vocabulary
}

func NewEncoder(mode schema.Encoding) (*Encoder, error) {
	switch mode {
	case schema.EncodingCategory, schema.EncodingTokens:
	default:
		return nil, fmt.Errorf("unsupported multi-label mode %q", mode)
	}
	return &Encoder{mode: mode}, nil
}

func (e *Encoder) Mode() schema.Encoding {
	return e.mode
}

// Fitted reports whether the encoder has a vocabulary.
func (e *Encoder) Fitted() bool {
	return e.vocab != nil
}

// Fit replaces the vocabulary with the one learned from frame.
func (e *Encoder) Fit(frame *dataset.Frame) Vocabulary {
	voc := Fit(e.mode, frame)
	e.vocab = &voc
	return voc
}

func (e *Encoder) Vocabulary() (Vocabulary, error) {
	if e.vocab == nil {
		return Vocabulary{}, ErrUninitialized
	}
	return *e.vocab, nil
}

func (e *Encoder) Transform(frame *dataset.Frame) (*dataset.Matrix, error) {
	if e.vocab == nil {
		return nil, ErrUninitialized
	}
	return Transform(*e.vocab, e.mode, frame), nil
}

// State is the persisted form of an encoder.
type State struct {
	Mode   schema.Encoding `json:"mode"`
	Tokens []string        `json:"tokens"`
}

// State serializes the encoder's vocabulary.
func (e *Encoder) State() ([]byte, error) {
	if e.vocab == nil {
		return nil, ErrUninitialized
	}
	return json.Marshal(State{Mode: e.mode, Tokens: e.vocab.Tokens()})
}

// Restore rebuilds an encoder from State output.
func Restore(blob []byte) (*Encoder, error) {
	var st State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("decode encoder state: %w", err)
	}

	e, err := NewEncoder(st.Mode)
	if err != nil {
		return nil, err
	}
	voc := NewVocabulary(st.Tokens)
	e.vocab = &voc
	return e, nil
}
