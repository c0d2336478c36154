package permission

import (
	"context"
	"log/slog"

	"github.com/kanbanhq/board-management/internal/cache"
)

// Invalidator clears cached permission contexts after permission-graph
// mutations. It runs synchronously after the mutation commits and before
// the handler writes its success response, so a client that saw the grant
// succeed cannot observe the old set on its next request.
//
// Invalidation failures are logged, never surfaced: a missed delete
// self-heals when the cache entry's TTL expires.
type Invalidator struct {
	cache  cache.Cache
	logger *slog.Logger
}

func NewInvalidator(c cache.Cache, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{cache: c, logger: logger}
}

// InvalidateUser clears every cached context for one user. Used for
// user-scoped changes: direct profile assignment, team membership of this
// user, user deletion. The pattern covers all issued-at suffixes since the
// invalidator cannot know which tokens are in flight.
func (i *Invalidator) InvalidateUser(ctx context.Context, userID int64) {
	if err := i.cache.DelPattern(ctx, cache.PermissionContextUserPattern(userID)); err != nil {
		i.logger.ErrorContext(ctx, "failed to invalidate user permission cache", "user_id", userID, "error", err)
	}
	i.dropAggregate(ctx)
}

// InvalidateAll clears every cached permission context. Team- and
// profile-scoped changes fan out to an unknown set of users, so the
// coordinator trades precision for safety: an over-broad delete costs a
// cache-miss recompute, a missed one is a stale-privilege bug.
func (i *Invalidator) InvalidateAll(ctx context.Context) {
	if err := i.cache.DelPattern(ctx, cache.PermissionContextAllPattern); err != nil {
		i.logger.ErrorContext(ctx, "failed to invalidate permission cache", "error", err)
	}
	i.dropAggregate(ctx)
}

func (i *Invalidator) dropAggregate(ctx context.Context) {
	if err := i.cache.Del(ctx, cache.PermissionDataKey); err != nil {
		i.logger.ErrorContext(ctx, "failed to drop permission data aggregate", "error", err)
	}
}
