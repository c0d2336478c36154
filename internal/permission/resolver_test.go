package permission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kanbanhq/board-management/internal/permission"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Module Suite")
}

// Mock graph repository for testing
type mockGraphRepository struct {
	profileID    *int64
	profileName  string
	direct       []string
	viaTeams     []string
	memberships  []permission.TeamMembership
	profileErr   error
	directErr    error
	teamPermsErr error
	// transientFailures fails the first N profile loads before succeeding
	transientFailures int
	profileCalls      int
}

func (m *mockGraphRepository) GetUserProfile(_ context.Context, _ int64) (*int64, string, error) {
	m.profileCalls++
	if m.transientFailures > 0 {
		m.transientFailures--
		return nil, "", errors.New("connection reset")
	}
	if m.profileErr != nil {
		return nil, "", m.profileErr
	}
	return m.profileID, m.profileName, nil
}

func (m *mockGraphRepository) GetDirectPermissions(_ context.Context, _ int64) ([]string, error) {
	if m.directErr != nil {
		return nil, m.directErr
	}
	return m.direct, nil
}

func (m *mockGraphRepository) GetTeamMemberships(_ context.Context, _ int64) ([]permission.TeamMembership, error) {
	return m.memberships, nil
}

func (m *mockGraphRepository) GetTeamPermissions(_ context.Context, _ int64) ([]string, error) {
	if m.teamPermsErr != nil {
		return nil, m.teamPermsErr
	}
	return m.viaTeams, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Resolver", func() {
	var (
		repo     *mockGraphRepository
		resolver *permission.Resolver
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = &mockGraphRepository{}
		resolver = permission.NewResolver(repo, testLogger())
	})

	It("should union direct and team permissions", func() {
		profileID := int64(3)
		repo.profileID = &profileID
		repo.profileName = "Member"
		repo.direct = []string{"view_boards", "edit_boards"}
		repo.viaTeams = []string{"manage_tasks"}
		repo.memberships = []permission.TeamMembership{{ID: 1, Name: "Platform", Role: "member"}}

		resolved, err := resolver.Resolve(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.UserID).To(Equal(int64(7)))
		Expect(resolved.ProfileName).To(Equal("Member"))
		Expect(resolved.Permissions.Names()).To(Equal([]string{"edit_boards", "manage_tasks", "view_boards"}))
		Expect(resolved.Teams).To(HaveLen(1))
	})

	It("should deduplicate permissions granted through both halves of the graph", func() {
		repo.direct = []string{"view_boards", "edit_boards"}
		repo.viaTeams = []string{"edit_boards", "view_boards"}

		resolved, err := resolver.Resolve(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.Permissions.Names()).To(Equal([]string{"edit_boards", "view_boards"}))
	})

	It("should resolve a user with no profile and no teams to an empty set", func() {
		resolved, err := resolver.Resolve(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.ProfileID).To(BeNil())
		Expect(resolved.Permissions).To(BeEmpty())
		Expect(resolved.Teams).To(BeEmpty())
	})

	It("should be idempotent for the same inputs", func() {
		repo.direct = []string{"view_boards"}

		first, err := resolver.Resolve(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		second, err := resolver.Resolve(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Permissions).To(Equal(first.Permissions))
	})

	It("should not retry a missing user", func() {
		repo.profileErr = permission.ErrUserNotFound

		_, err := resolver.Resolve(ctx, 404)
		Expect(err).To(MatchError(permission.ErrUserNotFound))
		Expect(repo.profileCalls).To(Equal(1))
	})

	It("should not retry an inactive user", func() {
		repo.profileErr = permission.ErrUserInactive

		_, err := resolver.Resolve(ctx, 7)
		Expect(err).To(MatchError(permission.ErrUserInactive))
		Expect(repo.profileCalls).To(Equal(1))
	})

	It("should retry transient store failures and then succeed", func() {
		repo.transientFailures = 2
		repo.direct = []string{"view_boards"}

		resolved, err := resolver.Resolve(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.Permissions.Has(permission.ViewBoards)).To(BeTrue())
		Expect(repo.profileCalls).To(Equal(3))
	})

	It("should fail closed when the store stays unreachable", func() {
		repo.transientFailures = 10

		_, err := resolver.Resolve(ctx, 7)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Set", func() {
	It("should marshal to a sorted JSON array and unmarshal back", func() {
		s := permission.NewSet("view_boards", "edit_boards", "view_boards")

		data, err := s.MarshalJSON()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`["edit_boards","view_boards"]`))

		var out permission.Set
		Expect(out.UnmarshalJSON(data)).To(Succeed())
		Expect(out.Has(permission.ViewBoards)).To(BeTrue())
		Expect(out.Has(permission.EditBoards)).To(BeTrue())
		Expect(out.Has(permission.ManageTags)).To(BeFalse())
	})
})

var _ = Describe("Name", func() {
	It("should fall back to the raw identifier for unknown permissions", func() {
		Expect(permission.Name("custom_thing").Display()).To(Equal("custom_thing"))
		Expect(permission.ViewBoards.Display()).To(Equal("View Boards"))
	})
})
