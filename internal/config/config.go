// Package config provides configuration loading for the chatkb service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables honored on top of the config file. The vector-store
// location and the source-document directory are deployment concerns, so they
// stay overridable without editing the file.
const (
	EnvStorePath = "KB_STORE_PATH"
	EnvDataDir   = "KB_DATA_DIR"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	KB        KBConfig        `yaml:"kb"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig holds vector-store settings.
type StoreConfig struct {
	// Path is the SQLite database file backing the store.
	Path string `yaml:"path"`
	// Collection names the record set within the store, e.g. "products".
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// SentimentConfig holds sentiment classifier settings.
type SentimentConfig struct {
	ModelPath string `yaml:"model_path"`
	// ModelName is reported by /health.
	ModelName string `yaml:"model_name"`
	MaxTokens int    `yaml:"max_tokens"`
	// MaxChars is the input truncation length applied before classification.
	MaxChars int `yaml:"max_chars"`
}

// KBConfig holds knowledge-base chunking and indexing settings.
type KBConfig struct {
	DataDir      string `yaml:"data_dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	DefaultTopK  int    `yaml:"default_top_k"`
	// Watch enables live reindexing of changed documents while the server runs.
	Watch bool `yaml:"watch"`
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, and expands relative paths against the config
// file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Store.Path = expandPath(cfg.Store.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Sentiment.ModelPath = expandPath(cfg.Sentiment.ModelPath, configDir)
	cfg.KB.DataDir = expandPath(cfg.KB.DataDir, configDir)

	return &cfg, nil
}

// Default returns the configuration used when no config file exists:
// defaults plus environment overrides, with paths relative to the working
// directory.
func Default() *Config {
	var cfg Config
	applyEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.KB.DataDir = v
	}
}

// expandPath converts a relative path to absolute. Paths starting with "./"
// are resolved against configDir; other relative paths are left alone so
// they resolve against the working directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
