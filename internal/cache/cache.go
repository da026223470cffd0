// Package cache keeps public user projections by id, in process or in Redis.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

const keyPrefix = "accounthub:users:v1:"

// UserKey is the cache key of a user id.
func UserKey(id string) string {
	return keyPrefix + id
}

// Memory is a TTL map guarded by a RWMutex. Expired entries are dropped when
// read and swept from Set at most once per ttl.
type Memory struct {
	mu        sync.RWMutex
	ttl       time.Duration
	m         map[string]entry
	lastSweep time.Time
}

type entry struct {
	val user.PublicUser
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
	}
}

func (c *Memory) Get(_ context.Context, id string) (user.PublicUser, bool) {
	key := UserKey(id)
	now := time.Now()

	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return user.PublicUser{}, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return user.PublicUser{}, false
	}

	return e.val, true
}

func (c *Memory) Set(_ context.Context, u user.PublicUser) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= c.ttl {
		for k, e := range c.m {
			if now.After(e.exp) {
				delete(c.m, k)
			}
		}
		c.lastSweep = now
	}

	c.m[UserKey(u.ID)] = entry{val: u, exp: now.Add(c.ttl)}
}

// Len reports how many entries are held, expired or not.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.m)
}
