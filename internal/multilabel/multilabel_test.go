package multilabel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/record"
	"github.com/spigell/profile-featurizer/internal/schema"
)

func str(s string) *string { return &s }

func frame(col string, cells ...*string) *dataset.Frame {
	rows := make([]record.RawRow, len(cells))
	for i, c := range cells {
		rows[i] = record.RawRow{col: c}
	}
	return dataset.NewFrame([]string{col}, rows...)
}

func TestFitSortsVocabulary(t *testing.T) {
	voc := Fit(schema.EncodingTokens, frame("position", str("data,engineer"), str("ai,engineer")))
	assert.Equal(t, []string{"ai", "data", "engineer"}, voc.Tokens())
}

func TestTransformKnownAndUnseenTokens(t *testing.T) {
	enc, err := NewEncoder(schema.EncodingTokens)
	require.NoError(t, err)
	enc.Fit(frame("position", str("data,engineer"), str("ai,engineer")))

	m, err := enc.Transform(frame("position", str("data"), str("scientist"), nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"position/ai", "position/data", "position/engineer"}, m.Columns)
	assert.Equal(t, [][]int{{0, 1, 0}, {0, 0, 0}, {0, 0, 0}}, m.Rows)
}

func TestTransformBeforeFit(t *testing.T) {
	enc, err := NewEncoder(schema.EncodingCategory)
	require.NoError(t, err)

	_, err = enc.Transform(frame("education/0", str("mit")))
	require.ErrorIs(t, err, ErrUninitialized)

	_, err = enc.State()
	require.ErrorIs(t, err, ErrUninitialized)
}

func TestVocabularySharedAcrossRepetitions(t *testing.T) {
	cols := []string{"experience/0/name", "experience/1/name"}
	train := dataset.NewFrame(cols,
		record.RawRow{cols[0]: str("data,engineer"), cols[1]: nil},
		record.RawRow{cols[0]: nil, cols[1]: str("analyst")},
	)

	enc, err := NewEncoder(schema.EncodingTokens)
	require.NoError(t, err)
	voc := enc.Fit(train)
	require.Equal(t, []string{"analyst", "data", "engineer"}, voc.Tokens())

	m, err := enc.Transform(dataset.NewFrame(cols, record.RawRow{cols[0]: str("analyst"), cols[1]: str("analyst,data")}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"experience/0/name/analyst", "experience/0/name/data", "experience/0/name/engineer",
		"experience/1/name/analyst", "experience/1/name/data", "experience/1/name/engineer",
	}, m.Columns)
	assert.Equal(t, [][]int{{1, 0, 0, 1, 1, 0}}, m.Rows)
}

func TestRefitReplacesVocabulary(t *testing.T) {
	enc, err := NewEncoder(schema.EncodingTokens)
	require.NoError(t, err)

	enc.Fit(frame("position", str("data")))
	enc.Fit(frame("position", str("ml")))

	voc, err := enc.Vocabulary()
	require.NoError(t, err)
	assert.Equal(t, []string{"ml"}, voc.Tokens())
}

func TestCategoryKeepsWholeCell(t *testing.T) {
	enc, err := NewEncoder(schema.EncodingCategory)
	require.NoError(t, err)
	enc.Fit(frame("experience/0/company", str("acme corp"), str("none"), str("acme corp")))

	m, err := enc.Transform(frame("experience/0/company", str("acme corp"), str("acme")))
	require.NoError(t, err)

	assert.Equal(t, []string{"experience/0/company/acme corp", "experience/0/company/none"}, m.Columns)
	assert.Equal(t, [][]int{{1, 0}, {0, 0}}, m.Rows)
}

func TestStateRoundTrip(t *testing.T) {
	enc, err := NewEncoder(schema.EncodingTokens)
	require.NoError(t, err)
	enc.Fit(frame("position", str("data,engineer"), str("ai")))

	blob, err := enc.State()
	require.NoError(t, err)

	restored, err := Restore(blob)
	require.NoError(t, err)
	assert.Equal(t, schema.EncodingTokens, restored.Mode())

	in := frame("position", str("engineer,ai"))
	want, err := enc.Transform(in)
	require.NoError(t, err)
	got, err := restored.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestoreRejectsBadState(t *testing.T) {
	_, err := Restore([]byte("{"))
	assert.Error(t, err)

	_, err = Restore([]byte(`{"mode":"years","tokens":[]}`))
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	assert.Nil(t, Tokenize(schema.EncodingTokens, nil))
	assert.Equal(t, []string{"a", "b"}, Tokenize(schema.EncodingTokens, str("a,,b, ")))
	assert.Equal(t, []string{"a,b"}, Tokenize(schema.EncodingCategory, str("a,b")))
	assert.Empty(t, Tokenize(schema.EncodingCategory, str("")))
}
