package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RepositoryAPI is what the resolver needs from the relational store. The
// two permission reads follow the two halves of the graph: user → profile →
// permissions, and user → teams → team profiles → permissions.
type RepositoryAPI interface {
	GetUserProfile(ctx context.Context, userID int64) (profileID *int64, profileName string, err error)
	GetDirectPermissions(ctx context.Context, userID int64) ([]string, error)
	GetTeamMemberships(ctx context.Context, userID int64) ([]TeamMembership, error)
	GetTeamPermissions(ctx context.Context, userID int64) ([]string, error)
}

const (
	resolveMaxRetries     = 2
	resolveInitialBackoff = 50 * time.Millisecond
)

// Resolver flattens the permission graph into an EffectivePermissions value.
// Transient store failures are retried with exponential backoff; if the
// store stays unreachable the resolver fails closed rather than guessing.
type Resolver struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewResolver(repo RepositoryAPI, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve computes the user's effective permission set. A user with no
// profile and no teams resolves to an empty set, which is a valid
// low-privilege state, not an error.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*EffectivePermissions, error) {
	var result *EffectivePermissions

	backoff := retry.WithMaxRetries(resolveMaxRetries, retry.NewExponential(resolveInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resolved, err := r.resolveOnce(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserInactive) {
				return err
			}
			r.logger.WarnContext(ctx, "permission resolution attempt failed, retrying", "user_id", userID, "error", err)
			return retry.RetryableError(err)
		}
		result = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Resolver) resolveOnce(ctx context.Context, userID int64) (*EffectivePermissions, error) {
	profileID, profileName, err := r.repo.GetUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserInactive) {
			return nil, err
		}
		return nil, fmt.Errorf("load user profile: %w", err)
	}

	direct, err := r.repo.GetDirectPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load direct permissions: %w", err)
	}

	viaTeams, err := r.repo.GetTeamPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load team permissions: %w", err)
	}

	memberships, err := r.repo.GetTeamMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load team memberships: %w", err)
	}

	// Union of both halves of the graph; Set semantics dedupe overlaps.
	perms := NewSet(direct...)
	for _, name := range viaTeams {
		perms.Add(Name(name))
	}

	if memberships == nil {
		memberships = []TeamMembership{}
	}

	return &EffectivePermissions{
		UserID:      userID,
		ProfileID:   profileID,
		ProfileName: profileName,
		Permissions: perms,
		Teams:       memberships,
		ResolvedAt:  time.Now(),
	}, nil
}
