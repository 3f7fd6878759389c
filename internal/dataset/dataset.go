package dataset

import (
	"fmt"

	"github.com/spigell/profile-featurizer/internal/record"
)

// Frame is a row-aligned table of raw string cells.
type Frame struct {
	Columns []string
	Rows    []record.RawRow
}

// NewFrame builds a frame from rows, keeping columns in the given order.
func NewFrame(columns []string, rows ...record.RawRow) *Frame {
	return &Frame{Columns: append([]string(nil), columns...), Rows: rows}
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

// Select projects the frame onto columns. Missing columns are null.
func (f *Frame) Select(columns []string) *Frame {
	out := &Frame{
		Columns: append([]string(nil), columns...),
		Rows:    make([]record.RawRow, len(f.Rows)),
	}
	for i, row := range f.Rows {
		selected := make(record.RawRow, len(columns))
		for _, col := range columns {
			selected[col] = row[col]
		}
		out.Rows[i] = selected
	}
	return out
}

// Column returns every cell of col in row order.
func (f *Frame) Column(col string) []*string {
	out := make([]*string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[col]
	}
	return out
}

// HStackFrames concatenates frames column-wise. All frames must have the same row count.
func HStackFrames(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return &Frame{}, nil
	}

	n := frames[0].Len()
	out := &Frame{Rows: make([]record.RawRow, n)}
	for i := range out.Rows {
		out.Rows[i] = make(record.RawRow)
	}

	for _, f := range frames {
		if f.Len() != n {
			return nil, fmt.Errorf("row count mismatch: %d != %d", f.Len(), n)
		}
		out.Columns = append(out.Columns, f.Columns...)
		for i, row := range f.Rows {
			for _, col := range f.Columns {
				out.Rows[i][col] = row[col]
			}
		}
	}
	return out, nil
}

// Matrix is a row-aligned table of 0/1 indicators.
type Matrix struct {
	Columns []string
	Rows    [][]int
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(columns []string, rows int) *Matrix {
	m := &Matrix{Columns: columns, Rows: make([][]int, rows)}
	for i := range m.Rows {
		m.Rows[i] = make([]int, len(columns))
	}
	return m
}

func (m *Matrix) Len() int {
	return len(m.Rows)
}

func (m *Matrix) Width() int {
	return len(m.Columns)
}

// HStackMatrices concatenates matrices column-wise. All matrices must have the same row count.
func HStackMatrices(matrices ...*Matrix) (*Matrix, error) {
	if len(matrices) == 0 {
		return &Matrix{}, nil
	}

	n := matrices[0].Len()
	out := &Matrix{Rows: make([][]int, n)}
	for _, m := range matrices {
		if m.Len() != n {
			return nil, fmt.Errorf("row count mismatch: %d != %d", m.Len(), n)
		}
		out.Columns = append(out.Columns, m.Columns...)
		for i, row := range m.Rows {
			out.Rows[i] = append(out.Rows[i], row...)
		}
	}
	return out, nil
}
