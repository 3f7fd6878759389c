package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spigell/profile-featurizer/internal/record"
)

// ReadCSV parses a headed CSV. Empty cells are read as null.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv input is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	f := &Frame{Columns: header}
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := make(record.RawRow, len(header))
		for i, col := range header {
			if i >= len(fields) || fields[i] == "" {
				row[col] = nil
				continue
			}
			v := fields[i]
			row[col] = &v
		}
		f.Rows = append(f.Rows, row)
	}

	return f, nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteCSV writes the frame with a header line. Null cells are written empty.
func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns); err != nil {
		return err
	}

	fields := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, col := range f.Columns {
			fields[i] = ""
			if v, ok := row.Get(col); ok {
				fields[i] = v
			}
		}
		if err := writer.Write(fields); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile creates or truncates path and writes the frame to it.
func WriteCSVFile(path string, f *Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteCSV(file, f); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return file.Close()
}

// WriteLabeledCSV writes the label columns of labels followed by the columns
// of m. Matrix cells are written by position, so duplicate names keep their
// own values.
func WriteLabeledCSV(w io.Writer, labels *Frame, m *Matrix) error {
	if labels.Len() != m.Len() {
		return fmt.Errorf("row count mismatch: %d != %d", labels.Len(), m.Len())
	}

	writer := csv.NewWriter(w)
	header := append(append([]string(nil), labels.Columns...), m.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	fields := make([]string, len(header))
	for r, row := range labels.Rows {
		for i, col := range labels.Columns {
			fields[i] = ""
			if v, ok := row.Get(col); ok {
				fields[i] = v
			}
		}
		offset := len(labels.Columns)
		for j := range m.Columns {
			fields[offset+j] = strconv.Itoa(m.Rows[r][j])
		}
		if err := writer.Write(fields); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteLabeledCSVFile creates or truncates path and writes it with WriteLabeledCSV.
func WriteLabeledCSVFile(path string, labels *Frame, m *Matrix) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteLabeledCSV(file, labels, m); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return file.Close()
}
