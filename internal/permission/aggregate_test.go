package permission_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kanbanhq/board-management/internal/cache"
	profileDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/profile"
	teamDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/team"
	userDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/user"
	"github.com/kanbanhq/board-management/internal/permission"
)

// Mock aggregate repository for testing
type mockAggregateRepository struct {
	permissions  []profileDatamodel.Permission
	profiles     []profileDatamodel.Profile
	profilePerms []profileDatamodel.ProfilePermission
	users        []userDatamodel.User
	teams        []teamDatamodel.Team
	userTeams    []teamDatamodel.UserTeam
	teamProfiles []teamDatamodel.TeamProfile
	listCalls    int
}

func (m *mockAggregateRepository) ListPermissions(_ context.Context) ([]profileDatamodel.Permission, error) {
	m.listCalls++
	return m.permissions, nil
}

func (m *mockAggregateRepository) ListProfiles(_ context.Context) ([]profileDatamodel.Profile, error) {
	return m.profiles, nil
}

func (m *mockAggregateRepository) ListProfilePermissions(_ context.Context) ([]profileDatamodel.ProfilePermission, error) {
	return m.profilePerms, nil
}

func (m *mockAggregateRepository) ListUsers(_ context.Context) ([]userDatamodel.User, error) {
	return m.users, nil
}

func (m *mockAggregateRepository) ListTeams(_ context.Context) ([]teamDatamodel.Team, error) {
	return m.teams, nil
}

func (m *mockAggregateRepository) ListUserTeams(_ context.Context) ([]teamDatamodel.UserTeam, error) {
	return m.userTeams, nil
}

func (m *mockAggregateRepository) ListTeamProfiles(_ context.Context) ([]teamDatamodel.TeamProfile, error) {
	return m.teamProfiles, nil
}

var _ = Describe("AggregateService", func() {
	var (
		repo    *mockAggregateRepository
		store   cache.Cache
		service *permission.AggregateService
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = cache.NewMemoryCache()

		adminProfileID := int64(1)
		repo = &mockAggregateRepository{
			permissions: []profileDatamodel.Permission{
				{ID: 1, Name: "view_boards", Description: "View boards", Category: "boards"},
				{ID: 2, Name: "manage_users", Description: "Manage users", Category: "administration"},
			},
			profiles: []profileDatamodel.Profile{
				{ID: 1, Name: "Administrator"},
				{ID: 2, Name: "Viewer"},
			},
			profilePerms: []profileDatamodel.ProfilePermission{
				{ID: 1, ProfileID: 1, PermissionID: 1},
				{ID: 2, ProfileID: 1, PermissionID: 2},
				{ID: 3, ProfileID: 2, PermissionID: 1},
			},
			users: []userDatamodel.User{
				{ID: 7, Name: "Dana", Email: "dana@kanbanhq.dev", ProfileID: &adminProfileID, IsActive: true},
				{ID: 8, Name: "Sam", Email: "sam@kanbanhq.dev", IsActive: true},
			},
			teams: []teamDatamodel.Team{
				{ID: 1, Name: "Platform"},
				{ID: 2, Name: "Empty"},
			},
			userTeams: []teamDatamodel.UserTeam{
				{ID: 1, UserID: 7, TeamID: 1, Role: "lead"},
				{ID: 2, UserID: 8, TeamID: 1, Role: "member"},
			},
			teamProfiles: []teamDatamodel.TeamProfile{
				{ID: 1, TeamID: 1, ProfileID: 2},
			},
		}

		service = permission.NewAggregateService(repo, store, testLogger())
	})

	It("should assemble the four views from the raw rows", func() {
		data, err := service.PermissionData(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(data.Permissions).To(HaveLen(2))
		Expect(data.Permissions[0].DisplayName).To(Equal("View Boards"))

		Expect(data.Profiles).To(HaveLen(2))
		Expect(data.Profiles[0].PermissionIDs).To(Equal([]int64{1, 2}))
		Expect(data.Profiles[1].PermissionIDs).To(Equal([]int64{1}))

		Expect(data.Users).To(HaveLen(2))
		Expect(data.Users[0].ProfileID).NotTo(BeNil())
		Expect(data.Users[1].ProfileID).To(BeNil())

		Expect(data.Teams).To(HaveLen(2))
		Expect(data.Teams[0].ProfileIDs).To(Equal([]int64{2}))
		Expect(data.Teams[0].MemberIDs).To(Equal([]int64{7, 8}))
		Expect(data.Teams[1].ProfileIDs).To(BeEmpty())
		Expect(data.Teams[1].MemberIDs).To(BeEmpty())
	})

	It("should serve repeat reads from the cache inside the TTL", func() {
		_, err := service.PermissionData(ctx)
		Expect(err).NotTo(HaveOccurred())

		data, err := service.PermissionData(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(data.Permissions).To(HaveLen(2))

		Expect(repo.listCalls).To(Equal(1))
	})

	It("should rebuild after the snapshot is dropped by an invalidation", func() {
		_, err := service.PermissionData(ctx)
		Expect(err).NotTo(HaveOccurred())

		permission.NewInvalidator(store, testLogger()).InvalidateAll(ctx)

		_, err = service.PermissionData(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.listCalls).To(Equal(2))
	})
})
