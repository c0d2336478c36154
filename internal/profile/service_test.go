package profile_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/cache"
	"github.com/kanbanhq/board-management/internal/permission"
	"github.com/kanbanhq/board-management/internal/profile"
)

func TestProfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Profile Module Suite")
}

// Mock repository for testing
type mockProfileRepository struct {
	profiles    map[int64]*profile.Profile
	assignments map[int64]map[int64]bool
	permissions map[int64]bool
	nextID      int64
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{
		profiles:    make(map[int64]*profile.Profile),
		assignments: make(map[int64]map[int64]bool),
		permissions: make(map[int64]bool),
		nextID:      1,
	}
}

func (m *mockProfileRepository) GetAll(_ context.Context) ([]*profile.Profile, error) {
	out := make([]*profile.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProfileRepository) GetByID(_ context.Context, id int64) (*profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, errors.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfileRepository) Create(_ context.Context, p *profile.Profile) error {
	p.ID = m.nextID
	m.nextID++
	m.profiles[p.ID] = p
	return nil
}

func (m *mockProfileRepository) Update(_ context.Context, p *profile.Profile) error {
	m.profiles[p.ID] = p
	return nil
}

func (m *mockProfileRepository) Delete(_ context.Context, id int64) error {
	delete(m.profiles, id)
	delete(m.assignments, id)
	return nil
}

func (m *mockProfileRepository) HasPermission(_ context.Context, profileID, permissionID int64) (bool, error) {
	return m.assignments[profileID][permissionID], nil
}

func (m *mockProfileRepository) AddPermission(_ context.Context, profileID, permissionID int64) error {
	if m.assignments[profileID] == nil {
		m.assignments[profileID] = make(map[int64]bool)
	}
	m.assignments[profileID][permissionID] = true
	return nil
}

func (m *mockProfileRepository) RemovePermission(_ context.Context, profileID, permissionID int64) error {
	delete(m.assignments[profileID], permissionID)
	return nil
}

func (m *mockProfileRepository) PermissionExists(_ context.Context, permissionID int64) (bool, error) {
	return m.permissions[permissionID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("ProfileService", func() {
	var (
		repo    *mockProfileRepository
		store   cache.Cache
		service *profile.Service
		ctx     context.Context
	)

	cachedKey := cache.PermissionContextKey(7, time.Unix(100, 0))

	seedContext := func() {
		Expect(store.Set(ctx, cachedKey, []byte("{}"), time.Minute)).To(Succeed())
	}

	contextGone := func() {
		_, err := store.Get(ctx, cachedKey)
		ExpectWithOffset(1, err).To(MatchError(cache.ErrCacheMiss))
	}

	contextKept := func() {
		_, err := store.Get(ctx, cachedKey)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockProfileRepository()
		store = cache.NewMemoryCache()
		service = profile.NewService(repo, permission.NewInvalidator(store, testLogger()), testLogger())
	})

	Describe("Create", func() {
		It("should create a profile without touching cached contexts", func() {
			seedContext()

			p, err := service.Create(ctx, profile.CreateProfileDTO{Name: "Member"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).NotTo(BeZero())

			// a brand new profile grants nobody anything yet
			contextKept()
		})

		It("should reject a too-short name", func() {
			_, err := service.Create(ctx, profile.CreateProfileDTO{Name: "x"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("should apply partial updates and invalidate broadly", func() {
			p, err := service.Create(ctx, profile.CreateProfileDTO{Name: "Member", Description: "old"})
			Expect(err).NotTo(HaveOccurred())
			seedContext()

			newName := "Members"
			updated, err := service.Update(ctx, p.ID, profile.UpdateProfileDTO{Name: &newName})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Members"))
			Expect(updated.Description).To(Equal("old"))

			contextGone()
		})

		It("should report a missing profile", func() {
			name := "Members"
			_, err := service.Update(ctx, 404, profile.UpdateProfileDTO{Name: &name})
			Expect(err).To(MatchError(errors.ErrProfileNotFound))
		})
	})

	Describe("AssignPermission", func() {
		var profileID int64

		BeforeEach(func() {
			p, err := service.Create(ctx, profile.CreateProfileDTO{Name: "Member"})
			Expect(err).NotTo(HaveOccurred())
			profileID = p.ID
			repo.permissions[11] = true
		})

		It("should assign and invalidate every cached context", func() {
			seedContext()

			Expect(service.AssignPermission(ctx, profileID, 11)).To(Succeed())

			assigned, err := repo.HasPermission(ctx, profileID, 11)
			Expect(err).NotTo(HaveOccurred())
			Expect(assigned).To(BeTrue())

			contextGone()
		})

		It("should reject a duplicate assignment", func() {
			Expect(service.AssignPermission(ctx, profileID, 11)).To(Succeed())

			err := service.AssignPermission(ctx, profileID, 11)
			Expect(err).To(MatchError(errors.ErrDuplicateAssignment))
		})

		It("should reject an unknown permission", func() {
			err := service.AssignPermission(ctx, profileID, 999)
			Expect(err).To(MatchError(errors.ErrPermissionNotFound))
		})

		It("should reject an unknown profile", func() {
			err := service.AssignPermission(ctx, 404, 11)
			Expect(err).To(MatchError(errors.ErrProfileNotFound))
		})
	})

	Describe("Delete", func() {
		It("should delete and invalidate every cached context", func() {
			p, err := service.Create(ctx, profile.CreateProfileDTO{Name: "Member"})
			Expect(err).NotTo(HaveOccurred())
			seedContext()

			Expect(service.Delete(ctx, p.ID)).To(Succeed())

			_, err = service.GetByID(ctx, p.ID)
			Expect(err).To(MatchError(errors.ErrProfileNotFound))

			contextGone()
		})
	})
})
