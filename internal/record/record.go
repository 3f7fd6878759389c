package record

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/profile-featurizer/internal/schema"
)

// Separator joins path segments of a flattened record.
const Separator = "/"

// Flat maps a fully-qualified path to a scalar leaf.
type Flat map[string]any

// RawRow maps a flat column name to its raw value. A nil value is null.
type RawRow map[string]*string

// Get returns the value of col and whether it is set.
func (r RawRow) Get(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Decode reads one JSON document keeping numbers as json.Number.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return v, nil
}

// Flatten walks a nested record and returns every scalar leaf keyed by its path.
// Object keys and array indices become path segments.
func Flatten(v any) Flat {
	out := make(Flat)
	flatten(out, v, "")
	return out
}

func flatten(out Flat, v any, prefix string) {
	switch typed := v.(type) {
	case map[string]any:
		for key, child := range typed {
			flatten(out, child, prefix+key+Separator)
		}
	case []any:
		for idx, child := range typed {
			flatten(out, child, prefix+strconv.Itoa(idx)+Separator)
		}
	default:
		out[strings.TrimSuffix(prefix, Separator)] = v
	}
}

// Unflatten re-nests a flattened record. Segments that are all array indices
// of the same parent become arrays.
func Unflatten(flat Flat) any {
	if len(flat) == 0 {
		return map[string]any{}
	}
	if v, ok := flat[""]; ok && len(flat) == 1 {
		return v
	}

	root := make(map[string]any)
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		segments := strings.Split(path, Separator)
		node := root
		for i, segment := range segments {
			if i == len(segments)-1 {
				node[segment] = flat[path]
				break
			}
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[segment] = child
			}
			node = child
		}
	}

	return toArrays(root)
}

// toArrays converts maps keyed by 0..n-1 into slices.
func toArrays(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}

	for key, child := range m {
		m[key] = toArrays(child)
	}

	if len(m) == 0 {
		return m
	}
	arr := make([]any, len(m))
	for key, child := range m {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(m) || strconv.Itoa(idx) != key {
			return m
		}
		arr[idx] = child
	}
	return arr
}

// Project extracts every column declared by s from flat.
// Paths absent from the record are bound to null.
func Project(flat Flat, s *schema.Schema) RawRow {
	row := make(RawRow)
	for _, g := range s.Groups() {
		sources := g.SourcePaths()
		columns := g.Columns()
		for i, col := range columns {
			row[col] = scalar(flat, sources[i])
		}
	}
	return row
}

func scalar(flat Flat, path string) *string {
	v, ok := flat[path]
	if !ok || v == nil {
		return nil
	}
	s := valueAsString(v)
	return &s
}

func valueAsString(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
