// Package config loads Scholium configuration with layered precedence:
// built-in defaults, then the user config file, then a library-local
// config file, then SCHOLIUM_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Scholium configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Library    LibraryConfig    `yaml:"library" json:"library"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// RootConfig is one surveyed document root. Priority orders roots for
// duplicate resolution: when the same paper appears under two roots, the
// copy from the lower-priority-number root wins.
type RootConfig struct {
	Path     string `yaml:"path" json:"path"`
	Source   string `yaml:"source" json:"source"`
	Priority int    `yaml:"priority" json:"priority"`
}

// LibraryConfig configures where documents live and where snapshots go.
type LibraryConfig struct {
	// Roots are the directories surveyed during a build, in priority
	// order for deduplication.
	Roots []RootConfig `yaml:"roots" json:"roots"`

	// Exclude are glob patterns never surveyed.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// DataDir holds the corpus and vector snapshots and the build lock.
	// Defaults to ~/.scholium.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// MetadataPath points at an exported external metadata file (JSON).
	// Empty disables external metadata enrichment.
	MetadataPath string `yaml:"metadata_path" json:"metadata_path"`
}

// SearchConfig configures result shaping. Scoring weights and fusion
// constants are fixed by the ranking algorithm and deliberately not
// configurable.
type SearchConfig struct {
	// MaxResults is the default result count for search (default: 10).
	MaxResults int `yaml:"max_results" json:"max_results"`

	// RecommendResults is the default result count for similar-document
	// recommendations (default: 5).
	RecommendResults int `yaml:"recommend_results" json:"recommend_results"`

	// Denylist names document keys excluded from every ranking channel,
	// on top of documents flagged non-retrievable at build time.
	Denylist []string `yaml:"denylist" json:"denylist"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" (default) or "static"
	// (deterministic hash embeddings, offline use and tests).
	Provider string `yaml:"provider" json:"provider"`

	// Model is the embedding model identifier. Vector snapshots record
	// it; a snapshot built with a different model is rejected.
	Model string `yaml:"model" json:"model"`

	// Dimensions is the expected vector width. 0 auto-detects from the
	// first response.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize is texts per embedding request batch (default: 64).
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// CacheSize is the query embedding LRU cache capacity (default: 256).
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// RequestTimeout bounds one embedding request, e.g. "120s".
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// IndexConfig configures corpus builds.
type IndexConfig struct {
	// Workers is the tokenization worker pool size (default: NumCPU).
	Workers int `yaml:"workers" json:"workers"`

	// PersistTopics controls whether synthesized cross-lingual topic
	// labels are written into the corpus snapshot. When false they are
	// recomputed on load, so translation table updates take effect
	// without a rebuild.
	PersistTopics bool `yaml:"persist_topics" json:"persist_topics"`
}

// LoggingConfig configures the log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// File is the log file path; empty uses ~/.scholium/logs/scholium.log.
	File string `yaml:"file" json:"file"`
}

// defaultExcludePatterns are always excluded from surveys.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/.DS_Store",
	"**/~$*",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Library: LibraryConfig{
			Roots:   nil,
			Exclude: defaultExcludePatterns,
			DataDir: defaultDataDir(),
		},
		Search: SearchConfig{
			MaxResults:       10,
			RecommendResults: 5,
			// Patent filings and monograph attachments live alongside the
			// papers but are never useful search results.
			Denylist: []string{"发明专利", "专著"},
		},
		Embeddings: EmbeddingsConfig{
			Provider:       "ollama",
			Model:          "bge-m3",
			Dimensions:     0, // Auto-detect from embedder
			BatchSize:      64,
			OllamaHost:     "", // Empty uses default http://localhost:11434
			CacheSize:      256,
			RequestTimeout: "120s",
		},
		Index: IndexConfig{
			Workers:       runtime.NumCPU(),
			PersistTopics: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultDataDir returns the default snapshot directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".scholium")
	}
	return filepath.Join(home, ".scholium")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/scholium/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/scholium/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scholium", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "scholium", "config.yaml")
	}
	return filepath.Join(home, ".config", "scholium", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for the given library directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/scholium/config.yaml)
//  3. Library config (.scholium.yaml in the library directory)
//  4. Environment variables (SCHOLIUM_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .scholium.yaml or .scholium.yml.
func (c *Config) loadFromFile(dir string) error {
	if dir == "" {
		return nil
	}

	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".scholium.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".scholium.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Library
	if len(other.Library.Roots) > 0 {
		c.Library.Roots = other.Library.Roots
	}
	if len(other.Library.Exclude) > 0 {
		// Merge with defaults rather than replace
		c.Library.Exclude = append(c.Library.Exclude, other.Library.Exclude...)
	}
	if other.Library.DataDir != "" {
		c.Library.DataDir = other.Library.DataDir
	}
	if other.Library.MetadataPath != "" {
		c.Library.MetadataPath = other.Library.MetadataPath
	}

	// Search
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.RecommendResults != 0 {
		c.Search.RecommendResults = other.Search.RecommendResults
	}
	if len(other.Search.Denylist) > 0 {
		c.Search.Denylist = append(c.Search.Denylist, other.Search.Denylist...)
	}

	// Embeddings
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.RequestTimeout != "" {
		c.Embeddings.RequestTimeout = other.Embeddings.RequestTimeout
	}

	// Index
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.PersistTopics {
		c.Index.PersistTopics = true
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies SCHOLIUM_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCHOLIUM_DATA_DIR"); v != "" {
		c.Library.DataDir = v
	}
	if v := os.Getenv("SCHOLIUM_METADATA_PATH"); v != "" {
		c.Library.MetadataPath = v
	}
	if v := os.Getenv("SCHOLIUM_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SCHOLIUM_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SCHOLIUM_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("SCHOLIUM_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.BatchSize = n
		}
	}
	if v := os.Getenv("SCHOLIUM_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("SCHOLIUM_PERSIST_TOPICS"); v != "" {
		c.Index.PersistTopics = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("SCHOLIUM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// CorpusSnapshotPath returns the corpus snapshot location under DataDir.
func (c *Config) CorpusSnapshotPath() string {
	return filepath.Join(c.Library.DataDir, "corpus.json")
}

// VectorSnapshotPath returns the vector snapshot location under DataDir.
func (c *Config) VectorSnapshotPath() string {
	return filepath.Join(c.Library.DataDir, "vectors.json")
}

// BuildLockPath returns the build lock file location under DataDir.
func (c *Config) BuildLockPath() string {
	return filepath.Join(c.Library.DataDir, "build.lock")
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.RecommendResults < 0 {
		return fmt.Errorf("search.recommend_results must be non-negative, got %d", c.Search.RecommendResults)
	}

	validProviders := map[string]bool{"ollama": true, "static": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'ollama' or 'static', got %q", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize < 1 {
		return fmt.Errorf("embeddings.batch_size must be at least 1, got %d", c.Embeddings.BatchSize)
	}
	if c.Embeddings.Dimensions < 0 {
		return fmt.Errorf("embeddings.dimensions must be non-negative (0 = auto-detect), got %d", c.Embeddings.Dimensions)
	}

	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}

	seen := make(map[string]struct{}, len(c.Library.Roots))
	for i, root := range c.Library.Roots {
		if root.Path == "" {
			return fmt.Errorf("library.roots[%d].path must not be empty", i)
		}
		if _, dup := seen[root.Path]; dup {
			return fmt.Errorf("library.roots[%d].path %q is listed twice", i, root.Path)
		}
		seen[root.Path] = struct{}{}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
