package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "typepool:class:"

// Redis serves class files stored as plain string values under prefix+name.
// Each lookup gets its own timeout because the locator contract carries no
// context.
type Redis struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// RedisConfig holds connection settings for NewRedis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:    "localhost:6379",
		Prefix:  DefaultRedisPrefix,
		Timeout: 2 * time.Second,
	}
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.Prefix, cfg.Timeout), nil
}

func NewRedisWithClient(client *redis.Client, prefix string, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = DefaultRedisConfig().Timeout
	}
	return &Redis{client: client, prefix: prefix, timeout: timeout}
}

func (r *Redis) Locate(name string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, true, nil
}

// Put publishes a class file without expiry.
func (r *Redis) Put(ctx context.Context, name string, data []byte) error {
	return r.client.Set(ctx, r.prefix+name, data, 0).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
