package auth_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kanbanhq/board-management/internal/auth"
	"github.com/kanbanhq/board-management/internal/cache"
	"github.com/kanbanhq/board-management/internal/permission"
)

// Mock resolver tracking how often the store was hit
type mockResolver struct {
	result       *permission.EffectivePermissions
	resolveError error
	calls        int
}

func (m *mockResolver) Resolve(_ context.Context, userID int64) (*permission.EffectivePermissions, error) {
	m.calls++
	if m.resolveError != nil {
		return nil, m.resolveError
	}
	result := *m.result
	result.UserID = userID
	return &result, nil
}

var _ = Describe("ContextBuilder", func() {
	var (
		builder   *auth.ContextBuilder
		resolver  *mockResolver
		tokenGen  *auth.JWTTokenGenerator
		blacklist *auth.Blacklist
		store     cache.Cache
		ctx       context.Context
		identity  auth.Identity
		token     string
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = cache.NewMemoryCache()
		blacklist = auth.NewBlacklist(store)
		tokenGen = auth.NewJWTTokenGenerator(
			"access-secret-0123456789-0123456789",
			"refresh-secret-0123456789-0123456789",
			15*time.Minute,
			7*24*time.Hour,
		)

		profileID := int64(3)
		resolver = &mockResolver{
			result: &permission.EffectivePermissions{
				ProfileID:   &profileID,
				ProfileName: "Member",
				Permissions: permission.NewSet("view_boards", "edit_boards"),
				Teams:       []permission.TeamMembership{{ID: 1, Name: "Platform", Role: "member"}},
			},
		}

		builder = auth.NewContextBuilder(tokenGen, blacklist, store, resolver, 5*time.Minute, testLogger())

		identity = auth.Identity{UserID: 7, Email: "dana@kanbanhq.dev", Name: "Dana"}
		var err error
		token, err = tokenGen.GenerateAccessToken(identity)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject an empty token", func() {
		_, err := builder.Build(ctx, "")
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
	})

	It("should reject a tampered token", func() {
		_, err := builder.Build(ctx, token+"x")
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
		Expect(resolver.calls).To(BeZero())
	})

	It("should reject a token signed with the refresh secret", func() {
		refreshToken, err := tokenGen.GenerateRefreshToken(identity)
		Expect(err).NotTo(HaveOccurred())

		_, err = builder.Build(ctx, refreshToken)
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
	})

	It("should resolve the permission context for a valid token", func() {
		ac, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.UserID).To(Equal(int64(7)))
		Expect(ac.Email).To(Equal("dana@kanbanhq.dev"))
		Expect(ac.ProfileName).To(Equal("Member"))
		Expect(ac.HasPermission(permission.ViewBoards)).To(BeTrue())
		Expect(ac.HasPermission(permission.ManageUsers)).To(BeFalse())
		Expect(ac.Teams).To(HaveLen(1))
	})

	It("should serve repeat requests from the cache", func() {
		_, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())

		ac, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.HasPermission(permission.ViewBoards)).To(BeTrue())

		Expect(resolver.calls).To(Equal(1))
	})

	It("should reject a blacklisted token even with a valid signature", func() {
		_, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())

		Expect(blacklist.Add(ctx, token, time.Now().Add(15*time.Minute))).To(Succeed())

		_, err = builder.Build(ctx, token)
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
	})

	It("should reject a token whose user no longer exists", func() {
		resolver.resolveError = permission.ErrUserNotFound

		_, err := builder.Build(ctx, token)
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
	})

	It("should reject a token whose user has been deactivated", func() {
		resolver.resolveError = permission.ErrUserInactive

		_, err := builder.Build(ctx, token)
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
	})

	It("should lock a deactivated user out once their contexts are invalidated", func() {
		ac, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.HasPermission(permission.ViewBoards)).To(BeTrue())

		// deactivation flips the store and drops the cached contexts
		resolver.resolveError = permission.ErrUserInactive
		permission.NewInvalidator(store, testLogger()).InvalidateUser(ctx, identity.UserID)

		_, err = builder.Build(ctx, token)
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
	})

	It("should surface store failures instead of collapsing them to unauthenticated", func() {
		storeErr := errors.New("connection refused")
		resolver.resolveError = storeErr

		_, err := builder.Build(ctx, token)
		Expect(err).To(MatchError(storeErr))
	})

	It("should serve the old permission set until invalidation, then the new one", func() {
		ac, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.HasPermission(permission.ManageTags)).To(BeFalse())

		// Grant lands in the store but the cached context is still live.
		resolver.result.Permissions = permission.NewSet("view_boards", "edit_boards", "manage_tags")

		ac, err = builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.HasPermission(permission.ManageTags)).To(BeFalse())

		invalidator := permission.NewInvalidator(store, testLogger())
		invalidator.InvalidateUser(ctx, identity.UserID)

		ac, err = builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.HasPermission(permission.ManageTags)).To(BeTrue())
		Expect(resolver.calls).To(Equal(2))
	})

	It("should discard a corrupt cache entry and resolve fresh", func() {
		claims, err := tokenGen.ValidateAccessToken(token)
		Expect(err).NotTo(HaveOccurred())

		key := cache.PermissionContextKey(claims.UserID, claims.IssuedAt.Time)
		Expect(store.Set(ctx, key, []byte("{not json"), time.Minute)).To(Succeed())

		ac, err := builder.Build(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ac.HasPermission(permission.ViewBoards)).To(BeTrue())
		Expect(resolver.calls).To(Equal(1))
	})
})
