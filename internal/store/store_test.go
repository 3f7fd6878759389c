package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	file, err := Open(ctx, BackendFile, filepath.Join(dir, "encoders"))
	require.NoError(t, err)

	db, err := Open(ctx, BackendSQLite, filepath.Join(dir, "state.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		file.Close()
		db.Close()
	})
	return map[string]Store{BackendFile: file, BackendSQLite: db}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := st.Load(ctx)
			require.ErrorIs(t, err, ErrNotFound)

			states := map[string][]byte{
				"education": []byte(`{"mode":"category","tokens":["mit","none"]}`),
				"position":  []byte(`{"mode":"tokens","tokens":["data"]}`),
			}
			require.NoError(t, st.Save(ctx, states))

			got, err := st.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.JSONEq(t, string(states["education"]), string(got["education"]))
			assert.JSONEq(t, string(states["position"]), string(got["position"]))
		})
	}
}

func TestStoreSaveReplacesGroup(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, st.Save(ctx, map[string][]byte{"position": []byte(`{"mode":"tokens","tokens":["a","b","c"]}`)}))
			require.NoError(t, st.Save(ctx, map[string][]byte{"position": []byte(`{"mode":"tokens","tokens":["z"]}`)}))

			got, err := st.Load(ctx)
			require.NoError(t, err)
			assert.JSONEq(t, `{"mode":"tokens","tokens":["z"]}`, string(got["position"]))
		})
	}
}

func TestFileIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644))

	st, err := NewFile(dir)
	require.NoError(t, err)

	_, err = st.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileRejectsInvalidState(t *testing.T) {
	st, err := NewFile(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, st.Save(context.Background(), map[string][]byte{"position": []byte("{")}))
}

func TestSQLiteFittedAt(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer st.Close()

	st.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, st.Save(ctx, map[string][]byte{"education": []byte(`{}`)}))

	at, err := st.FittedAt(ctx, "education")
	require.NoError(t, err)
	assert.True(t, at.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	_, err = st.FittedAt(ctx, "position")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "redis", "x")
	assert.Error(t, err)
}
