package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	assert.Equal(t, "positions/3/title", Substitute("positions/{}/title", 3))
	assert.Equal(t, "position", Substitute("position", 7))
}

func TestFeatureGroupColumns(t *testing.T) {
	g := FeatureGroup{
		Name:          "education",
		SourcePattern: "educations/{}/title",
		ColumnPattern: "education/{}",
		Repeat:        3,
		Encoding:      EncodingCategory,
	}

	assert.Equal(t, []string{"education/0", "education/1", "education/2"}, g.Columns())
	assert.Equal(t, []string{"educations/0/title", "educations/1/title", "educations/2/title"}, g.SourcePaths())

	single := FeatureGroup{Name: "position", SourcePattern: "profile/headline", ColumnPattern: "position", Repeat: 1}
	assert.Equal(t, []string{"position"}, single.Columns())
}

func TestDefaultSchema(t *testing.T) {
	s := Default()

	groups := s.Groups()
	require.Len(t, groups, 5)
	assert.Equal(t, "experience_company", groups[0].Name)
	assert.Equal(t, "position", groups[4].Name)
	assert.Len(t, s.Columns(), 5+5+5+3+1)

	g, ok := s.Group("experience_date")
	require.True(t, ok)
	assert.Equal(t, EncodingYears, g.Encoding)
	assert.Equal(t, PolicyNone, g.Normalize)
}

func TestNewRejectsInvalidGroups(t *testing.T) {
	tests := []struct {
		name  string
		group FeatureGroup
	}{
		{
			name:  "zero repeat",
			group: FeatureGroup{Name: "a", SourcePattern: "a", ColumnPattern: "a", Repeat: 0, Encoding: EncodingTokens},
		},
		{
			name:  "placeholder without repetition",
			group: FeatureGroup{Name: "a", SourcePattern: "a/{}", ColumnPattern: "a/{}", Repeat: 1, Encoding: EncodingTokens},
		},
		{
			name:  "repetition without placeholder",
			group: FeatureGroup{Name: "a", SourcePattern: "a", ColumnPattern: "a/{}", Repeat: 2, Encoding: EncodingTokens},
		},
		{
			name:  "unknown encoding",
			group: FeatureGroup{Name: "a", SourcePattern: "a", ColumnPattern: "a", Repeat: 1, Encoding: "hash"},
		},
		{
			name:  "unknown policy",
			group: FeatureGroup{Name: "a", SourcePattern: "a", ColumnPattern: "a", Repeat: 1, Normalize: "stem", Encoding: EncodingTokens},
		},
		{
			name:  "missing name",
			group: FeatureGroup{SourcePattern: "a", ColumnPattern: "a", Repeat: 1, Encoding: EncodingTokens},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.group)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	_, err := New(
		FeatureGroup{Name: "a", SourcePattern: "x", ColumnPattern: "col", Repeat: 1, Encoding: EncodingTokens},
		FeatureGroup{Name: "b", SourcePattern: "y", ColumnPattern: "col", Repeat: 1, Encoding: EncodingTokens},
	)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `groups:
  - name: skills
    source: skills/{}/name
    column: skill/{}
    repeat: 2
    normalize: position
    encoding: tokens
  - name: headline
    source: profile/headline
    column: headline
    repeat: 1
    encoding: category
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"skill/0", "skill/1", "headline"}, s.Columns())

	g, ok := s.Group("headline")
	require.True(t, ok)
	assert.Equal(t, PolicyNone, g.Normalize)
}
