package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/cache"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

var _ = Describe("RedisCache", func() {
	var (
		mr  *miniredis.Miniredis
		c   *cache.RedisCache
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())

		c, err = cache.NewRedisCache(internal.RedisConfig{
			Addr:      mr.Addr(),
			KeyPrefix: "boardmgmt",
		})
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
	})

	AfterEach(func() {
		c.Close()
		mr.Close()
	})

	Describe("Get and Set", func() {
		It("should round-trip a value", func() {
			err := c.Set(ctx, "permctx:1:100", []byte(`{"a":1}`), time.Minute)
			Expect(err).NotTo(HaveOccurred())

			got, err := c.Get(ctx, "permctx:1:100")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]byte(`{"a":1}`)))
		})

		It("should return ErrCacheMiss for an absent key", func() {
			_, err := c.Get(ctx, "permctx:1:100")
			Expect(err).To(MatchError(cache.ErrCacheMiss))
		})

		It("should expire values after the TTL", func() {
			err := c.Set(ctx, "permctx:1:100", []byte("v"), time.Minute)
			Expect(err).NotTo(HaveOccurred())

			mr.FastForward(2 * time.Minute)

			_, err = c.Get(ctx, "permctx:1:100")
			Expect(err).To(MatchError(cache.ErrCacheMiss))
		})
	})

	Describe("Del", func() {
		It("should remove the given keys", func() {
			Expect(c.Set(ctx, "k1", []byte("a"), time.Minute)).To(Succeed())
			Expect(c.Set(ctx, "k2", []byte("b"), time.Minute)).To(Succeed())

			Expect(c.Del(ctx, "k1", "k2")).To(Succeed())

			_, err := c.Get(ctx, "k1")
			Expect(err).To(MatchError(cache.ErrCacheMiss))
			_, err = c.Get(ctx, "k2")
			Expect(err).To(MatchError(cache.ErrCacheMiss))
		})

		It("should not fail on missing keys", func() {
			Expect(c.Del(ctx, "never-set")).To(Succeed())
		})
	})

	Describe("DelPattern", func() {
		It("should remove only the matching keys", func() {
			Expect(c.Set(ctx, "permctx:7:100", []byte("a"), time.Minute)).To(Succeed())
			Expect(c.Set(ctx, "permctx:7:200", []byte("b"), time.Minute)).To(Succeed())
			Expect(c.Set(ctx, "permctx:8:100", []byte("c"), time.Minute)).To(Succeed())
			Expect(c.Set(ctx, "blacklist:abc", []byte("1"), time.Minute)).To(Succeed())

			Expect(c.DelPattern(ctx, "permctx:7:*")).To(Succeed())

			_, err := c.Get(ctx, "permctx:7:100")
			Expect(err).To(MatchError(cache.ErrCacheMiss))
			_, err = c.Get(ctx, "permctx:7:200")
			Expect(err).To(MatchError(cache.ErrCacheMiss))

			got, err := c.Get(ctx, "permctx:8:100")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]byte("c")))

			got, err = c.Get(ctx, "blacklist:abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]byte("1")))
		})

		It("should remove every context with the namespace wildcard", func() {
			Expect(c.Set(ctx, "permctx:7:100", []byte("a"), time.Minute)).To(Succeed())
			Expect(c.Set(ctx, "permctx:8:100", []byte("b"), time.Minute)).To(Succeed())
			Expect(c.Set(ctx, "blacklist:abc", []byte("1"), time.Minute)).To(Succeed())

			Expect(c.DelPattern(ctx, cache.PermissionContextAllPattern)).To(Succeed())

			_, err := c.Get(ctx, "permctx:7:100")
			Expect(err).To(MatchError(cache.ErrCacheMiss))
			_, err = c.Get(ctx, "permctx:8:100")
			Expect(err).To(MatchError(cache.ErrCacheMiss))

			_, err = c.Get(ctx, "blacklist:abc")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Ping", func() {
		It("should succeed while the server is up", func() {
			Expect(c.Ping(ctx)).To(Succeed())
		})

		It("should fail after the server goes away", func() {
			mr.Close()
			Expect(c.Ping(ctx)).NotTo(Succeed())
		})
	})
})

var _ = Describe("MemoryCache", func() {
	var (
		c   *cache.MemoryCache
		ctx context.Context
	)

	BeforeEach(func() {
		c = cache.NewMemoryCache()
		ctx = context.Background()
	})

	It("should round-trip a value", func() {
		Expect(c.Set(ctx, "k", []byte("v"), time.Minute)).To(Succeed())

		got, err := c.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("v")))
	})

	It("should return ErrCacheMiss for an absent key", func() {
		_, err := c.Get(ctx, "nope")
		Expect(err).To(MatchError(cache.ErrCacheMiss))
	})

	It("should expire values after the TTL", func() {
		Expect(c.Set(ctx, "k", []byte("v"), time.Millisecond)).To(Succeed())

		Eventually(func() error {
			_, err := c.Get(ctx, "k")
			return err
		}).Should(MatchError(cache.ErrCacheMiss))
	})

	It("should delete by pattern", func() {
		Expect(c.Set(ctx, "permctx:7:100", []byte("a"), time.Minute)).To(Succeed())
		Expect(c.Set(ctx, "permctx:8:100", []byte("b"), time.Minute)).To(Succeed())

		Expect(c.DelPattern(ctx, "permctx:7:*")).To(Succeed())

		_, err := c.Get(ctx, "permctx:7:100")
		Expect(err).To(MatchError(cache.ErrCacheMiss))
		_, err = c.Get(ctx, "permctx:8:100")
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Keys", func() {
	It("should tie context keys to the token issue time", func() {
		issued := time.Unix(1700000000, 0)
		Expect(cache.PermissionContextKey(42, issued)).To(Equal("permctx:42:1700000000"))
	})

	It("should scope the user pattern to one user", func() {
		Expect(cache.PermissionContextUserPattern(42)).To(Equal("permctx:42:*"))
	})

	It("should never embed the raw token in a blacklist key", func() {
		token := "eyJhbGciOiJIUzI1NiJ9.payload.sig"
		key := cache.BlacklistKey(token)
		Expect(key).To(HavePrefix("blacklist:"))
		Expect(key).NotTo(ContainSubstring(token))
	})

	It("should produce identical blacklist keys for identical tokens", func() {
		Expect(cache.BlacklistKey("t1")).To(Equal(cache.BlacklistKey("t1")))
		Expect(cache.BlacklistKey("t1")).NotTo(Equal(cache.BlacklistKey("t2")))
	})
})
