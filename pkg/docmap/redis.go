package docmap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

// RedisCacheConfig configures a RedisCache. Either Client or Addr must be
// set; a provided client takes precedence.
type RedisCacheConfig struct {
	// Client is an existing Redis client to reuse.
	Client *redis.Client

	// Connection parameters used when no client is provided.
	Addr     string
	Password string
	DB       int

	// KeyPrefix is prepended to every cache key.
	KeyPrefix string

	// TTL bounds the lifetime of cached entries. Zero means no expiry.
	TTL time.Duration
}

// RedisCache is a Redis-backed Cache storing documents as BSON.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache creates a RedisCache, dialing a new client and verifying the
// connection when one was not supplied.
func NewRedisCache(cfg *RedisCacheConfig) (*RedisCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("docmap: redis cache configuration is required")
	}

	client := cfg.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("docmap: connect to redis: %w", err)
		}
	}

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

// redisEnvelope wraps cached values so mixed primitive and structured values
// survive the BSON round trip.
type redisEnvelope struct {
	V any `bson:"v"`
}

func (c *RedisCache) key(key string) string {
	return c.keyPrefix + key
}

// Get returns the value stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (any, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var env struct {
		V Document `bson:"v"`
	}
	if err := bson.Unmarshal(raw, &env); err != nil {
		return nil, false, err
	}
	return env.V, true, nil
}

// Set stores value under key.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	raw, err := bson.Marshal(redisEnvelope{V: value})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), raw, c.ttl).Err()
}

// Clear removes the entry under key.
func (c *RedisCache) Clear(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Del(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
