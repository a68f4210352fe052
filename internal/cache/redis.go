package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password" json:"-"`
	PasswordFile string `mapstructure:"password_file"`
	DB           int    `mapstructure:"db"`
	// Prefix namespaces every key so several deployments can share an instance.
	Prefix string `mapstructure:"prefix"`
}

// Redis is a shared backend. TTLs are enforced by Redis itself.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Delete removes keys matching pattern with SCAN, which does not block the server like KEYS.
func (r *Redis) Delete(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	err := r.scan(ctx, pattern, func(keys []string) error {
		n, err := r.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("delete keys: %w", err)
		}
		deleted += int(n)
		return nil
	})
	return deleted, err
}

func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	err := r.scan(ctx, pattern, func(keys []string) error {
		for _, k := range keys {
			out = append(out, k[len(r.prefix):])
		}
		return nil
	})
	return out, err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
