package schema

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder marks the repetition index inside a pattern.
const Placeholder = "{}"

var ErrInvalid = errors.New("invalid feature schema")

// Policy selects how the text of a group is normalized before encoding.
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyCompany   Policy = "company"
	PolicyName      Policy = "name"
	PolicyEducation Policy = "education"
	PolicyPosition  Policy = "position"
)

// Encoding selects how a group is turned into numeric columns.
type Encoding string

const (
	// EncodingCategory treats the whole normalized cell as a single label.
	EncodingCategory Encoding = "category"
	// EncodingTokens splits the normalized cell on commas.
	EncodingTokens Encoding = "tokens"
	// EncodingYears featurizes a date range into per-year indicators.
	EncodingYears Encoding = "years"
)

// FeatureGroup describes one extractable field group of a profile record.
type FeatureGroup struct {
	Name          string   `yaml:"name"`
	SourcePattern string   `yaml:"source"`
	ColumnPattern string   `yaml:"column"`
	Repeat        int      `yaml:"repeat"`
	Normalize     Policy   `yaml:"normalize"`
	Encoding      Encoding `yaml:"encoding"`
}

// Substitute replaces the placeholder in pattern with index.
func Substitute(pattern string, index int) string {
	return strings.ReplaceAll(pattern, Placeholder, strconv.Itoa(index))
}

// SourcePaths returns the flattened source path of every repetition.
func (g FeatureGroup) SourcePaths() []string {
	return g.expand(g.SourcePattern)
}

// Columns returns the flat column name of every repetition.
func (g FeatureGroup) Columns() []string {
	return g.expand(g.ColumnPattern)
}

func (g FeatureGroup) expand(pattern string) []string {
	if g.Repeat <= 1 {
		return []string{pattern}
	}

	out := make([]string, 0, g.Repeat)
	for i := 0; i < g.Repeat; i++ {
		out = append(out, Substitute(pattern, i))
	}
	return out
}

func (g FeatureGroup) validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalid)
	}
	if g.SourcePattern == "" || g.ColumnPattern == "" {
		return fmt.Errorf("%w: group %s: source and column patterns are required", ErrInvalid, g.Name)
	}
	if g.Repeat < 1 {
		return fmt.Errorf("%w: group %s: repeat must be at least 1, got %d", ErrInvalid, g.Name, g.Repeat)
	}

	hasSource := strings.Contains(g.SourcePattern, Placeholder)
	hasColumn := strings.Contains(g.ColumnPattern, Placeholder)
	if g.Repeat == 1 && (hasSource || hasColumn) {
		return fmt.Errorf("%w: group %s: unrepeated patterns must not contain %s", ErrInvalid, g.Name, Placeholder)
	}
	if g.Repeat > 1 && (!hasSource || !hasColumn) {
		return fmt.Errorf("%w: group %s: repeated patterns must contain %s", ErrInvalid, g.Name, Placeholder)
	}

	switch g.Normalize {
	case PolicyNone, PolicyCompany, PolicyName, PolicyEducation, PolicyPosition:
	default:
		return fmt.Errorf("%w: group %s: unknown normalize policy %q", ErrInvalid, g.Name, g.Normalize)
	}

	switch g.Encoding {
	case EncodingCategory, EncodingTokens, EncodingYears:
	default:
		return fmt.Errorf("%w: group %s: unknown encoding %q", ErrInvalid, g.Name, g.Encoding)
	}

	return nil
}

// Schema is an ordered, validated list of feature groups.
// Declaration order is the output column order.
type Schema struct {
	groups []FeatureGroup
}

// New validates groups and returns an immutable schema.
func New(groups ...FeatureGroup) (*Schema, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups declared", ErrInvalid)
	}

	normalized := make([]FeatureGroup, 0, len(groups))
	seenNames := make(map[string]struct{}, len(groups))
	seenColumns := make(map[string]string)
	for _, g := range groups {
		if g.Normalize == "" {
			g.Normalize = PolicyNone
		}
		if err := g.validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[g.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate group %s", ErrInvalid, g.Name)
		}
		seenNames[g.Name] = struct{}{}

		for _, col := range g.Columns() {
			if owner, ok := seenColumns[col]; ok {
				return nil, fmt.Errorf("%w: column %s declared by %s and %s", ErrInvalid, col, owner, g.Name)
			}
			seenColumns[col] = g.Name
		}
		normalized = append(normalized, g)
	}

	return &Schema{groups: normalized}, nil
}

// Groups returns a copy of the declared groups in order.
func (s *Schema) Groups() []FeatureGroup {
	out := make([]FeatureGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// Group looks a group up by name.
func (s *Schema) Group(name string) (FeatureGroup, bool) {
	for _, g := range s.groups {
		if g.Name == name {
			return g, true
		}
	}
	return FeatureGroup{}, false
}

// Columns returns every flat column of the schema in declaration order.
func (s *Schema) Columns() []string {
	var out []string
	for _, g := range s.groups {
		out = append(out, g.Columns()...)
	}
	return out
}

type file struct {
	Groups []FeatureGroup `yaml:"groups"`
}

// Load reads a YAML schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema file %q: %w", path, err)
	}

	return New(f.Groups...)
}

// Default returns the built-in profile schema.
func Default() *Schema {
	s, err := New(
		FeatureGroup{
			Name:          "experience_company",
			SourcePattern: "positions/{}/companyName",
			ColumnPattern: "experience/{}/company",
			Repeat:        5,
			Normalize:     PolicyCompany,
			Encoding:      EncodingCategory,
		},
		FeatureGroup{
			Name:          "experience_date",
			SourcePattern: "positions/{}/date1",
			ColumnPattern: "experience/{}/date_range",
			Repeat:        5,
			Normalize:     PolicyNone,
			Encoding:      EncodingYears,
		},
		FeatureGroup{
			Name:          "experience_name",
			SourcePattern: "positions/{}/title",
			ColumnPattern: "experience/{}/name",
			Repeat:        5,
			Normalize:     PolicyName,
			Encoding:      EncodingTokens,
		},
		FeatureGroup{
			Name:          "education",
			SourcePattern: "educations/{}/title",
			ColumnPattern: "education/{}",
			Repeat:        3,
			Normalize:     PolicyEducation,
			Encoding:      EncodingCategory,
		},
		FeatureGroup{
			Name:          "position",
			SourcePattern: "profile/headline",
			ColumnPattern: "position",
			Repeat:        1,
			Normalize:     PolicyPosition,
			Encoding:      EncodingTokens,
		},
	)
	if err != nil {
		panic(err)
	}
	return s
}
