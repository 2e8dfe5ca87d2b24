package file

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".beans", "config.toml"), store.Path())
}

func TestNewConfigStore_DoesNotCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".beans")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyDatabase, "data/research.db"))
	require.NoError(t, store.Set(KeyListLimit, 50))
	require.NoError(t, store.Set(KeyClampRelevance, false))

	val, ok := store.Get(KeyDatabase)
	assert.True(t, ok)
	assert.Equal(t, "data/research.db", val)
	assert.Equal(t, "data/research.db", store.GetString(KeyDatabase))
	assert.Equal(t, 50, store.GetInt(KeyListLimit))
	assert.False(t, store.GetBool(KeyClampRelevance))
}

func TestConfigStore_TypeMismatch(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("research.list_limit", "many"))

	assert.Equal(t, 0, store.GetInt("research.list_limit"))
	assert.False(t, store.GetBool("research.list_limit"))
	assert.Equal(t, "", store.GetString("missing"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_SetRejectsBadKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".research", "research."} {
		err := store.Set(key, 1)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "key %q", key)
	}
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set(KeyListLimit, 30))
	require.NoError(t, store1.Set(KeyDatabase, "other.db"))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 30, store2.GetInt(KeyListLimit))
	assert.Equal(t, "other.db", store2.GetString(KeyDatabase))
	assert.Equal(t, []string{KeyDatabase, KeyListLimit}, store2.Keys())
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyListLimit, 30))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[research]")
	assert.Contains(t, string(data), "list_limit = 30")
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[research]
database = "notes/research.db"
list_limit = 5
clamp_relevance = false
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "notes/research.db", store.GetString(KeyDatabase))
	assert.Equal(t, 5, store.GetInt(KeyListLimit))
	_, ok := store.Get(KeyClampRelevance)
	assert.True(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[research\nlist_limit ="), 0600))

	_, err := NewConfigStore(tmpDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// A directory where the file should be makes the write fail.
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set(KeyListLimit, 10))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(KeyListLimit, n+1)
			_ = store.GetInt(KeyListLimit)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	assert.Positive(t, store.GetInt(KeyListLimit))
}

func TestFlattenAndNestMap(t *testing.T) {
	nested := map[string]any{
		"research": map[string]any{
			"list_limit": int64(5),
			"fts":        map[string]any{"tokenizer": "unicode61"},
		},
		"top": true,
	}

	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{
		"research.list_limit":    int64(5),
		"research.fts.tokenizer": "unicode61",
		"top":                    true,
	}, flat)

	assert.Equal(t, nested, nestMap(flat))
}

func TestNestMap_TableWinsOverScalar(t *testing.T) {
	got := nestMap(map[string]any{
		"research":       "scalar",
		"research.limit": int64(1),
	})
	assert.Equal(t, map[string]any{"research": map[string]any{"limit": int64(1)}}, got)
}
