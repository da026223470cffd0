package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity; readiness probes call it.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Raw exposes the underlying client for the user cache.
func (c *Client) Raw() *redis.Client {
	return c.redisdb
}
