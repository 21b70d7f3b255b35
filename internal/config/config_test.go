package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8000 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Store.Collection != "products" {
		t.Errorf("collection = %q", cfg.Store.Collection)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Sentiment.ModelName != DefaultSentimentModelName {
		t.Errorf("sentiment model = %q", cfg.Sentiment.ModelName)
	}
	if cfg.Sentiment.MaxChars != 512 {
		t.Errorf("max chars = %d", cfg.Sentiment.MaxChars)
	}
	if cfg.KB.ChunkSize != 400 || cfg.KB.ChunkOverlap != 50 || cfg.KB.DefaultTopK != 3 {
		t.Errorf("kb defaults = %d/%d/%d",
			cfg.KB.ChunkSize, cfg.KB.ChunkOverlap, cfg.KB.DefaultTopK)
	}
}

func TestLoad(t *testing.T) {
	// Neutralize any ambient overrides; empty values are ignored by applyEnv.
	t.Setenv(EnvStorePath, "")
	t.Setenv(EnvDataDir, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 127.0.0.1
  port: 9090
store:
  path: ./kb/store.db
kb:
  data_dir: /srv/products
  chunk_size: 200
  watch: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug not set")
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	// "./" paths resolve against the config file's directory.
	if want := filepath.Join(dir, "kb/store.db"); cfg.Store.Path != want {
		t.Errorf("store path = %q, want %q", cfg.Store.Path, want)
	}
	if cfg.KB.DataDir != "/srv/products" {
		t.Errorf("data dir = %q", cfg.KB.DataDir)
	}
	if cfg.KB.ChunkSize != 200 {
		t.Errorf("chunk size = %d", cfg.KB.ChunkSize)
	}
	if !cfg.KB.Watch {
		t.Error("watch not set")
	}
	// Unspecified values still get defaults.
	if cfg.KB.ChunkOverlap != 50 {
		t.Errorf("chunk overlap = %d", cfg.KB.ChunkOverlap)
	}
	if cfg.Store.Collection != "products" {
		t.Errorf("collection = %q", cfg.Store.Collection)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvStorePath, "/var/lib/chatkb/kb.db")
	t.Setenv(EnvDataDir, "/var/lib/chatkb/products")

	cfg := Default()
	if cfg.Store.Path != "/var/lib/chatkb/kb.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.KB.DataDir != "/var/lib/chatkb/products" {
		t.Errorf("data dir = %q", cfg.KB.DataDir)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	t.Setenv(EnvStorePath, "/env/kb.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  path: /file/kb.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "/env/kb.db" {
		t.Errorf("store path = %q, want env override", cfg.Store.Path)
	}
}

func TestExpandPath(t *testing.T) {
	cases := []struct {
		path, dir, want string
	}{
		{"", "/etc", ""},
		{"/abs/path", "/etc", "/abs/path"},
		{"./rel", "/etc", "/etc/rel"},
		{"plain/rel", "/etc", "plain/rel"},
	}
	for _, tc := range cases {
		if got := expandPath(tc.path, tc.dir); got != tc.want {
			t.Errorf("expandPath(%q, %q) = %q, want %q", tc.path, tc.dir, got, tc.want)
		}
	}
}
