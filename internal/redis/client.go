package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/portfolio-service/internal/config"
	"github.com/trogers1052/portfolio-service/internal/errs"
)

// Client wraps the Redis client with session and analysis-cache operations
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Refresh sessions

func sessionKey(token string) string {
	return "session:" + token
}

// SetSession maps a refresh token to its user for ttl
func (c *Client) SetSession(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, sessionKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// ConsumeSession atomically reads and deletes a refresh token, so a token can
// be exchanged at most once. Unknown or expired tokens are errs.ErrNotFound.
func (c *Client) ConsumeSession(ctx context.Context, token string) (int64, error) {
	val, err := c.rdb.GetDel(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("session: %w", errs.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value %q: %w", val, err)
	}
	return userID, nil
}

// DeleteSession removes a refresh token. Deleting an unknown token is not an error.
func (c *Client) DeleteSession(ctx context.Context, token string) error {
	if err := c.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Analysis caching

// SetJSON caches value as JSON with ttl
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, jsonData, ttl).Err()
}

// GetJSON decodes a cached value into out. A miss is errs.ErrNotFound.
func (c *Client) GetJSON(ctx context.Context, key string, out any) error {
	jsonData, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", key, errs.ErrNotFound)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(jsonData, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}
