// Package matchcache keeps model match results in Redis so an identical
// ranked candidate list does not hit the model twice within the TTL.
package matchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tribehub/internal/app/matching"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 15 * time.Minute
	keyPrefix  = "tribehub:matches:"
)

// Config configures the Redis connection.
type Config struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	DialTimeout time.Duration
}

// Cache implements matching.Cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ matching.Cache = (*Cache)(nil)

// New connects and pings Redis.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("matchcache: empty redis address")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("matchcache: ping %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg.TTL), nil
}

// NewWithClient wraps an existing client. A non-positive ttl selects DefaultTTL.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns cached matches for key. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]matching.Match, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var out []matching.Match
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("matchcache: decode: %w", err)
	}
	return out, true, nil
}

// Set stores matches under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, matches []matching.Match) error {
	if matches == nil {
		matches = []matching.Match{}
	}
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("matchcache: encode: %w", err)
	}
	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}

// Ping checks Redis for the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
