package permission_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kanbanhq/board-management/internal/cache"
	"github.com/kanbanhq/board-management/internal/permission"
)

var _ = Describe("Invalidator", func() {
	var (
		store       cache.Cache
		invalidator *permission.Invalidator
		ctx         context.Context
	)

	seed := func(key string) {
		Expect(store.Set(ctx, key, []byte("{}"), time.Minute)).To(Succeed())
	}

	missing := func(key string) {
		_, err := store.Get(ctx, key)
		ExpectWithOffset(1, err).To(MatchError(cache.ErrCacheMiss))
	}

	present := func(key string) {
		_, err := store.Get(ctx, key)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = cache.NewMemoryCache()
		invalidator = permission.NewInvalidator(store, testLogger())
	})

	Describe("InvalidateUser", func() {
		It("should clear every context for the user regardless of issue time", func() {
			seed(cache.PermissionContextKey(7, time.Unix(100, 0)))
			seed(cache.PermissionContextKey(7, time.Unix(200, 0)))
			seed(cache.PermissionContextKey(8, time.Unix(100, 0)))

			invalidator.InvalidateUser(ctx, 7)

			missing(cache.PermissionContextKey(7, time.Unix(100, 0)))
			missing(cache.PermissionContextKey(7, time.Unix(200, 0)))
			present(cache.PermissionContextKey(8, time.Unix(100, 0)))
		})

		It("should drop the aggregate snapshot too", func() {
			seed(cache.PermissionDataKey)

			invalidator.InvalidateUser(ctx, 7)

			missing(cache.PermissionDataKey)
		})

		It("should leave blacklist entries alone", func() {
			seed(cache.BlacklistKey("some-token"))

			invalidator.InvalidateUser(ctx, 7)

			present(cache.BlacklistKey("some-token"))
		})
	})

	Describe("InvalidateAll", func() {
		It("should clear every cached context", func() {
			seed(cache.PermissionContextKey(7, time.Unix(100, 0)))
			seed(cache.PermissionContextKey(8, time.Unix(100, 0)))
			seed(cache.PermissionDataKey)

			invalidator.InvalidateAll(ctx)

			missing(cache.PermissionContextKey(7, time.Unix(100, 0)))
			missing(cache.PermissionContextKey(8, time.Unix(100, 0)))
			missing(cache.PermissionDataKey)
		})

		It("should leave blacklist entries alone", func() {
			seed(cache.BlacklistKey("some-token"))

			invalidator.InvalidateAll(ctx)

			present(cache.BlacklistKey("some-token"))
		})
	})
})
