package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const stateExt = ".json"

// File keeps one JSON document per group inside a directory.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	return &File{dir: dir}, nil
}

func (f *File) Save(ctx context.Context, states map[string][]byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	for group, blob := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.write(group, blob); err != nil {
			return fmt.Errorf("save state of %s: %w", group, err)
		}
	}
	return nil
}

func (f *File) write(group string, blob []byte) error {
	file, err := os.OpenFile(f.path(group), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var buf bytes.Buffer
	if err := json.Indent(&buf, blob, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	_, err = buf.WriteTo(file)
	return err
}

func (f *File) Load(ctx context.Context) (map[string][]byte, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read state directory: %w", err)
	}

	states := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != stateExt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		group := strings.TrimSuffix(entry.Name(), stateExt)
		blob, err := os.ReadFile(f.path(group))
		if err != nil {
			return nil, fmt.Errorf("load state of %s: %w", group, err)
		}
		states[group] = blob
	}

	if len(states) == 0 {
		return nil, ErrNotFound
	}
	return states, nil
}

func (f *File) Close() error {
	return nil
}

func (f *File) path(group string) string {
	return filepath.Join(f.dir, group+stateExt)
}
