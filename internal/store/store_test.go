package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the shared key-value contract against a backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, Key("nobody"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, Key("ADMIN"), []byte(`[{"id":"t1"}]`)))
	got, err := s.Get(ctx, Key("ADMIN"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"t1"}]`, string(got))

	require.NoError(t, s.Set(ctx, Key("ADMIN"), []byte(`[]`)))
	got, err = s.Get(ctx, Key("ADMIN"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	_, err = s.Get(ctx, Key("other"))
	assert.ErrorIs(t, err, ErrNotFound, "keys are scoped per identity")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "esports_data_ADMIN", Key("ADMIN"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", v))
	v[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	_, err = os.Stat(filepath.Join(dir, "esports_data_ADMIN.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "esports_data_ADMIN.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "esports_data_../evil", []byte("x")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "esports_data_.._evil.json", entries[0].Name())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "standings.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestFirestoreStore(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	s, err := NewFirestoreStore(context.Background(), "standings-test", "", "esports_data_test", "")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: "file", DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	_, err = Open(ctx, Options{Backend: "firestore"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
