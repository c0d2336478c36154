package auth

import (
	"context"
	"errors"
	"time"

	"github.com/kanbanhq/board-management/internal/cache"
)

// Blacklist is the denylist of not-yet-expired tokens: logged-out access
// tokens and rotated refresh tokens. Entries live in the shared cache under
// their own namespace, keyed by token digest, and expire when the token
// itself would have.
type Blacklist struct {
	cache cache.Cache
}

func NewBlacklist(c cache.Cache) *Blacklist {
	return &Blacklist{cache: c}
}

// Add revokes a token through its natural expiry. Tokens already past
// expiry need no entry; verification rejects them anyway.
func (b *Blacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.cache.Set(ctx, cache.BlacklistKey(token), []byte("1"), ttl)
}

// Contains reports whether the token has been revoked. A cache read failure
// is returned to the caller: the builder treats it as "cannot prove the
// token is clean" and fails closed.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	_, err := b.cache.Get(ctx, cache.BlacklistKey(token))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	return false, err
}
