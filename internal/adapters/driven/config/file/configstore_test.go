package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("search = [broken"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[search]
mode = "hybrid"
lexical_weight = 0.7
semantic_weight = 1
default_limit = 5

[cache]
ttl = "30m"
enabled = true

[kafka]
brokers = ["localhost:9092", "localhost:9093"]
topic = "notices"

[storage]
driver = "mongo"
hosts = "a:1, b:2"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "hybrid", store.GetString("search.mode"))
	assert.InDelta(t, 0.7, store.GetFloat("search.lexical_weight"), 1e-9)
	assert.InDelta(t, 1.0, store.GetFloat("search.semantic_weight"), 1e-9)
	assert.Equal(t, 5, store.GetInt("search.default_limit"))
	assert.Equal(t, 30*time.Minute, store.GetDuration("cache.ttl"))
	assert.True(t, store.GetBool("cache.enabled"))
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, store.GetStringSlice("kafka.brokers"))
	assert.Equal(t, []string{"a:1", "b:2"}, store.GetStringSlice("storage.hosts"))
	assert.Equal(t, "mongo", store.GetString("storage.driver"))
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("search.mode", 3))
	require.NoError(t, store.Set("cache.ttl", "soon"))

	assert.Equal(t, "", store.GetString("search.mode"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Equal(t, time.Duration(0), store.GetDuration("cache.ttl"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_PersistenceRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("search.lexical_weight", 0.6))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.NotContains(t, string(data), "llm.provider")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reopened.GetString("llm.provider"))
	assert.Equal(t, "gpt-4o-mini", reopened.GetString("llm.model"))
	assert.InDelta(t, 0.6, reopened.GetFloat("search.lexical_weight"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("search.default_limit", i)
			_ = store.GetInt("search.default_limit")
		}()
	}
	wg.Wait()
}

func TestNestAndFlatten(t *testing.T) {
	flat := map[string]any{"a.b.c": 1, "a.d": "x", "e": true}

	nested := nestMap(flat)

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}, "d": "x"},
		"e": true,
	}, nested)
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KIITBOT_TEST_DOTENV=from-file\nKIITBOT_TEST_PRESET=from-file\n"), 0600))
	t.Setenv("KIITBOT_TEST_PRESET", "from-env")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-file", os.Getenv("KIITBOT_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("KIITBOT_TEST_PRESET"))
	_ = os.Unsetenv("KIITBOT_TEST_DOTENV")
}
