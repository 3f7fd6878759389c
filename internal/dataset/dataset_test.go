package dataset

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/profile-featurizer/internal/record"
)

func str(s string) *string { return &s }

func TestSelectFillsMissingColumns(t *testing.T) {
	f := NewFrame([]string{"a", "b"}, record.RawRow{"a": str("1"), "b": str("2")})

	got := f.Select([]string{"b", "c"})
	assert.Equal(t, []string{"b", "c"}, got.Columns)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "2", *got.Rows[0]["b"])
	assert.Nil(t, got.Rows[0]["c"])
	assert.Contains(t, got.Rows[0], "c")
}

func TestHStackMatrices(t *testing.T) {
	left := &Matrix{Columns: []string{"a"}, Rows: [][]int{{1}, {0}}}
	right := &Matrix{Columns: []string{"b", "c"}, Rows: [][]int{{0, 1}, {1, 1}}}

	got, err := HStackMatrices(left, right)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got.Columns)
	assert.Equal(t, [][]int{{1, 0, 1}, {0, 1, 1}}, got.Rows)

	_, err = HStackMatrices(left, &Matrix{Columns: []string{"d"}, Rows: [][]int{{1}}})
	assert.Error(t, err)
}

func TestHStackFrames(t *testing.T) {
	left := NewFrame([]string{"a"}, record.RawRow{"a": str("x")})
	right := NewFrame([]string{"b"}, record.RawRow{"b": nil})

	got, err := HStackFrames(left, right)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Columns)
	assert.Equal(t, "x", *got.Rows[0]["a"])
	assert.Nil(t, got.Rows[0]["b"])
}

func TestCSVRoundTrip(t *testing.T) {
	input := "experience/0/company,position,NLP\nacme,\"data,engineer\",1\n,none,0\n"

	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"experience/0/company", "position", "NLP"}, f.Columns)

	_, ok := f.Rows[1].Get("experience/0/company")
	assert.False(t, ok)
	v, _ := f.Rows[0].Get("position")
	assert.Equal(t, "data,engineer", v)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Equal(t, input, buf.String())
}

func TestCSVFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	labels := NewFrame([]string{"NLP"}, record.RawRow{"NLP": str("1")})
	m := &Matrix{Columns: []string{"a/x", "a/y"}, Rows: [][]int{{0, 1}}}

	require.NoError(t, WriteLabeledCSVFile(path, labels, m))

	f, err := ReadCSVFile(path)
	require.NoError(t, err)
	v, _ := f.Rows[0].Get("a/y")
	assert.Equal(t, "1", v)
}

func TestWriteLabeledCSVIsPositional(t *testing.T) {
	labels := NewFrame([]string{"NLP"},
		record.RawRow{"NLP": str("1")},
		record.RawRow{"NLP": nil},
	)
	m := &Matrix{Columns: []string{"x/acme inc.", "x/acme inc."}, Rows: [][]int{{1, 0}, {0, 1}}}

	var buf bytes.Buffer
	require.NoError(t, WriteLabeledCSV(&buf, labels, m))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"NLP", "x/acme inc.", "x/acme inc."},
		{"1", "1", "0"},
		{"", "0", "1"},
	}, records)
}

func TestWriteLabeledCSVRowMismatch(t *testing.T) {
	labels := NewFrame([]string{"NLP"}, record.RawRow{"NLP": str("1")})
	m := &Matrix{Columns: []string{"a"}, Rows: [][]int{{1}, {0}}}

	err := WriteLabeledCSV(&bytes.Buffer{}, labels, m)
	assert.ErrorContains(t, err, "row count mismatch")
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}
