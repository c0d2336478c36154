package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the backend-agnostic key/value store shared by the permission
// context cache and the token blacklist. Values are opaque bytes; callers
// own serialization. DelPattern takes a redis-style glob and removes every
// matching key, which is how team- and profile-scoped invalidation fans out
// to an unknown set of users.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}
