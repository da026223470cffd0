package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/redis/go-redis/v9"
)

// Redis stores users as JSON under UserKey. Redis failures degrade to cache misses.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &Redis{rdb: rdb, ttl: ttl, log: log}
}

func (c *Redis) Get(ctx context.Context, id string) (user.PublicUser, bool) {
	b, err := c.rdb.Get(ctx, UserKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "user cache read failed", "user_id", id, "err", err)
		}
		return user.PublicUser{}, false
	}

	var u user.PublicUser
	if err := json.Unmarshal(b, &u); err != nil {
		c.log.WarnContext(ctx, "user cache entry corrupt", "user_id", id, "err", err)
		return user.PublicUser{}, false
	}

	return u, true
}

func (c *Redis) Set(ctx context.Context, u user.PublicUser) {
	b, err := json.Marshal(u)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, UserKey(u.ID), b, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "user cache write failed", "user_id", u.ID, "err", err)
	}
}
