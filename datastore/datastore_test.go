package datastore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func open(t *testing.T, path string) *DataStore {
	t.Helper()
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	return ds
}

func TestPutGetAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds := open(t, path)

	require.NoError(t, ds.Put("a", entry{Name: "x", Count: 2}))
	var got entry
	ok, err := ds.Get("a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entry{Name: "x", Count: 2}, got)

	ok, err = ds.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ds.Close())
	assert.ErrorIs(t, ds.Put("b", 1), ErrClosed)

	ds = open(t, path)
	defer ds.Close()
	var again entry
	ok, err = ds.Get("a", &again)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, got, again)
}

func TestDeleteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ds := open(t, path)
	require.NoError(t, ds.Put("a", 1))
	require.NoError(t, ds.Put("b", 2))

	existed, err := ds.Delete("a")
	require.NoError(t, err)
	assert.True(t, existed)
	existed, err = ds.Delete("a")
	require.NoError(t, err)
	assert.False(t, existed)
	require.NoError(t, ds.Close())

	_, err = ds.Delete("b")
	assert.ErrorIs(t, err, ErrClosed)

	ds = open(t, path)
	defer ds.Close()
	var n int
	ok, err := ds.Get("a", &n)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = ds.Get("b", &n)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestUpdateIsSerialized(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "store.json"))
	defer ds.Close()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, Update(ds, "counter", func(e *entry) error {
				e.Count++
				return nil
			}))
		}()
	}
	wg.Wait()

	var got entry
	_, err := ds.Get("counter", &got)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Count)
}

func TestBackupsAreRotated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ds := open(t, path)
	defer ds.Close()

	for i := range 6 {
		require.NoError(t, ds.Put("k", i))
		require.NoError(t, ds.SaveToFile())
	}
	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 3)
}

func TestInvalidFileIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, writeFile(path, "not json"))
	_, err := New(path)
	assert.ErrorContains(t, err, "invalid JSON")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
