package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Key namespaces. The permission context cache and the token blacklist share
// one backend but never collide because every key is namespace-prefixed.
const (
	permCtxNamespace   = "permctx"
	blacklistNamespace = "blacklist"
	permDataNamespace  = "permdata"
)

// PermissionContextKey builds the cache key for a user's resolved permission
// context. The issued-at suffix ties the entry to a specific token so that
// re-issuing a token implicitly abandons the old entry.
func PermissionContextKey(userID int64, issuedAt time.Time) string {
	return fmt.Sprintf("%s:%d:%d", permCtxNamespace, userID, issuedAt.Unix())
}

// PermissionContextUserPattern matches every cached context for one user,
// whatever token it was issued under.
func PermissionContextUserPattern(userID int64) string {
	return fmt.Sprintf("%s:%d:*", permCtxNamespace, userID)
}

// PermissionContextAllPattern matches every cached permission context.
const PermissionContextAllPattern = permCtxNamespace + ":*"

// PermissionDataKey caches the consolidated permission-data aggregate.
const PermissionDataKey = permDataNamespace + ":aggregate"

// BlacklistKey stores revoked tokens by digest so raw tokens never land in
// the cache backend.
func BlacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistNamespace + ":" + hex.EncodeToString(sum[:])
}
