package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("typepool.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "typepool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
classpath: [build/classes, lib/dep.jar]
cache:
  provider: LRU
  size: 16
redis:
  addr: localhost:6379
  timeout: 500ms
log:
  level: debug
`), 0o644))
	t.Setenv("TYPEPOOL_STORE", "other.db")
	t.Setenv("TYPEPOOL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"build/classes", "lib/dep.jar"}, cfg.Classpath)
	assert.Equal(t, "lru", cfg.Cache.Provider)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, "other.db", cfg.Store.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "typepool:class:", cfg.Redis.Prefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Redis.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_ClasspathEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TYPEPOOL_CLASSPATH", "a"+string(os.PathListSeparator)+"b.jar")

	cfg, err := LoadConfig("absent.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b.jar"}, cfg.Classpath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"noop", func(c *Config) { c.Cache.Provider = "noop" }, false},
		{"unknown provider", func(c *Config) { c.Cache.Provider = "memcached" }, true},
		{"lru without size", func(c *Config) { c.Cache.Provider = "lru"; c.Cache.Size = 0 }, true},
		{"redis without timeout", func(c *Config) { c.Redis.Addr = "x:1"; c.Redis.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
