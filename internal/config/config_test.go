package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setTestHome isolates the test from any real user config.
func setTestHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	return tmp
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 64, cfg.Embeddings.BatchSize)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 5, cfg.Search.RecommendResults)
	assert.False(t, cfg.Index.PersistTopics)
	assert.GreaterOrEqual(t, cfg.Index.Workers, 1)
	assert.NotEmpty(t, cfg.Library.DataDir)
}

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())
}

func TestLoad_NoConfigFilesUsesDefaults(t *testing.T) {
	setTestHome(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 10, cfg.Search.MaxResults)
}

func TestLoad_LibraryConfigOverridesDefaults(t *testing.T) {
	setTestHome(t)
	dir := t.TempDir()

	content := `
version: 1
library:
  roots:
    - path: /papers/local
      source: local
      priority: 0
    - path: /papers/reference
      source: reference
      priority: 1
search:
  max_results: 25
embeddings:
  model: custom-embed
  batch_size: 16
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scholium.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, cfg.Library.Roots, 2)
	assert.Equal(t, "/papers/local", cfg.Library.Roots[0].Path)
	assert.Equal(t, 1, cfg.Library.Roots[1].Priority)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, "custom-embed", cfg.Embeddings.Model)
	assert.Equal(t, 16, cfg.Embeddings.BatchSize)
	// Unset fields keep defaults
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 5, cfg.Search.RecommendResults)
}

func TestLoad_UserConfigThenLibraryConfig(t *testing.T) {
	home := setTestHome(t)
	dir := t.TempDir()

	userDir := filepath.Join(home, "scholium")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	userCfg := "embeddings:\n  model: user-model\n  batch_size: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(userCfg), 0o644))

	libCfg := "embeddings:\n  model: library-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scholium.yaml"), []byte(libCfg), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Library config wins for model, user config survives for batch size
	assert.Equal(t, "library-model", cfg.Embeddings.Model)
	assert.Equal(t, 8, cfg.Embeddings.BatchSize)
}

func TestLoad_EnvOverridesHavePrecedence(t *testing.T) {
	setTestHome(t)
	dir := t.TempDir()

	content := "embeddings:\n  model: file-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scholium.yaml"), []byte(content), 0o644))

	t.Setenv("SCHOLIUM_EMBEDDINGS_MODEL", "env-model")
	t.Setenv("SCHOLIUM_BATCH_SIZE", "32")
	t.Setenv("SCHOLIUM_PERSIST_TOPICS", "true")
	t.Setenv("SCHOLIUM_DATA_DIR", "/tmp/scholium-data")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Embeddings.Model)
	assert.Equal(t, 32, cfg.Embeddings.BatchSize)
	assert.True(t, cfg.Index.PersistTopics)
	assert.Equal(t, "/tmp/scholium-data", cfg.Library.DataDir)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	setTestHome(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scholium.yaml"), []byte("embeddings: ["), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Embeddings.Provider = "openai" },
			wantErr: "embeddings.provider",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Embeddings.BatchSize = 0 },
			wantErr: "batch_size",
		},
		{
			name:    "negative max results",
			mutate:  func(c *Config) { c.Search.MaxResults = -1 },
			wantErr: "max_results",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Index.Workers = 0 },
			wantErr: "workers",
		},
		{
			name: "empty root path",
			mutate: func(c *Config) {
				c.Library.Roots = []RootConfig{{Path: "", Source: "local"}}
			},
			wantErr: "path must not be empty",
		},
		{
			name: "duplicate root path",
			mutate: func(c *Config) {
				c.Library.Roots = []RootConfig{
					{Path: "/papers", Source: "local", Priority: 0},
					{Path: "/papers", Source: "reference", Priority: 1},
				}
			},
			wantErr: "listed twice",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSnapshotPaths_UnderDataDir(t *testing.T) {
	cfg := NewConfig()
	cfg.Library.DataDir = "/data/scholium"

	assert.Equal(t, filepath.Join("/data/scholium", "corpus.json"), cfg.CorpusSnapshotPath())
	assert.Equal(t, filepath.Join("/data/scholium", "vectors.json"), cfg.VectorSnapshotPath())
	assert.Equal(t, filepath.Join("/data/scholium", "build.lock"), cfg.BuildLockPath())
}

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")

	assert.Equal(t, filepath.Join("/custom/xdg", "scholium", "config.yaml"), GetUserConfigPath())
}

func TestMergeWith_ExcludePatternsAppend(t *testing.T) {
	cfg := NewConfig()
	defaults := len(cfg.Library.Exclude)

	cfg.mergeWith(&Config{Library: LibraryConfig{Exclude: []string{"**/drafts/**"}}})

	assert.Len(t, cfg.Library.Exclude, defaults+1)
	assert.Contains(t, cfg.Library.Exclude, "**/drafts/**")
}
