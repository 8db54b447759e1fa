package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ragstore tool.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	SnapshotPath       string `yaml:"snapshot_path"` // overrides the default .ragstore/corpus.db
}

// EmbeddingConfig selects the embedder backing the store.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "hashed", "openai", "ollama"
	Model     string `yaml:"model"`       // e.g. "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // environment variable holding the API key
	BaseURL   string `yaml:"base_url"`    // endpoint override for "ollama"
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // 0 = no floor
	IncludeMetadata     bool    `yaml:"include_metadata"`
	SearchMethod        string  `yaml:"search_method"` // "semantic", "keyword", "hybrid"
	SemanticWeight      float64 `yaml:"semantic_weight"`
	CacheSize           int     `yaml:"cache_size"`
	CacheTTLSeconds     int     `yaml:"cache_ttl_seconds"`
}

// IngestConfig holds corpus ingestion configuration.
type IngestConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	MaxFileBytes int64    `yaml:"max_file_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			EmbeddingDimension: 256,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hashed",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Retrieve: RetrieveConfig{
			TopK:                5,
			SimilarityThreshold: 0,
			IncludeMetadata:     false,
			SearchMethod:        "semantic",
			SemanticWeight:      0.5,
			CacheSize:           100,
			CacheTTLSeconds:     300,
		},
		Ingest: IngestConfig{
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.rst"},
			Excludes:     []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/.ragstore/**"},
			MaxFileBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragstore.yaml,
// then .ragstore/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragstore.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragstore", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SnapshotPath returns the corpus snapshot path for a directory, honoring
// the configured override.
func (c *Config) SnapshotPath(dir string) string {
	if c.Store.SnapshotPath != "" {
		return c.Store.SnapshotPath
	}
	return filepath.Join(dir, ".ragstore", "corpus.db")
}

// EnsureDir ensures the .ragstore directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".ragstore"), 0755)
}
