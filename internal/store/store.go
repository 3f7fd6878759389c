package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no encoder state has been saved.
var ErrNotFound = errors.New("encoder state not found")

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store persists encoder states keyed by feature group name.
type Store interface {
	// Save replaces the stored state of every group in states.
	Save(ctx context.Context, states map[string][]byte) error
	Load(ctx context.Context) (map[string][]byte, error)
	Close() error
}

// Open returns the store for backend rooted at path.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		f, err := NewFile(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case BackendSQLite:
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
