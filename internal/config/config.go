package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"typepool/internal/cache"
)

type Config struct {
	// Classpath lists class directories and jar archives, searched in order.
	Classpath []string `yaml:"classpath"`
	Cache     struct {
		Provider string `yaml:"provider"` // simple | noop | lru
		Size     int    `yaml:"size"`     // lru only
	} `yaml:"cache"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Redis struct {
		Addr    string        `yaml:"addr"`
		Prefix  string        `yaml:"prefix"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"redis"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Cache.Provider = "simple"
	cfg.Cache.Size = 4096
	cfg.Store.Path = "typepool.db"
	cfg.Redis.Prefix = "typepool:class:"
	cfg.Redis.Timeout = 2 * time.Second
	cfg.Log.Level = "info"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TYPEPOOL_CLASSPATH"); v != "" {
		c.Classpath = filepath.SplitList(v)
	}
	if v := os.Getenv("TYPEPOOL_CACHE"); v != "" {
		c.Cache.Provider = v
	}
	if v := os.Getenv("TYPEPOOL_STORE"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("TYPEPOOL_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("TYPEPOOL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects settings the pool cannot be built from.
func (c *Config) Validate() error {
	c.Cache.Provider = strings.ToLower(c.Cache.Provider)
	if _, err := cache.New(c.Cache.Provider, max(c.Cache.Size, 1)); err != nil {
		return err
	}
	if c.Cache.Provider == "lru" && c.Cache.Size <= 0 {
		return fmt.Errorf("lru cache size must be positive, got %d", c.Cache.Size)
	}
	if c.Redis.Addr != "" && c.Redis.Timeout <= 0 {
		return fmt.Errorf("redis timeout must be positive, got %s", c.Redis.Timeout)
	}
	return nil
}
