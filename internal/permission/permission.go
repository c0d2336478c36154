package permission

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// ErrUserNotFound and ErrUserInactive are internal signals; the auth layer
// converts both to an unauthenticated response instead of surfacing them.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user inactive")
)

// Name is a typed permission identifier as stored in the permissions table.
// Guards check Names against the resolved set instead of concatenating
// strings at call sites, so a typo fails to compile rather than silently
// denying access.
type Name string

const (
	ViewBoards   Name = "view_boards"
	CreateBoards Name = "create_boards"
	EditBoards   Name = "edit_boards"
	DeleteBoards Name = "delete_boards"
	ManageTasks  Name = "manage_tasks"
	ManageTags   Name = "manage_tags"

	ManageProfiles     Name = "manage_profiles"
	ManageTeams        Name = "manage_teams"
	ManageUsers        Name = "manage_users"
	ViewPermissionData Name = "view_permission_data"
)

// displayNames is the single place permission identifiers are formatted for
// humans; nothing else builds permission strings.
var displayNames = map[Name]string{
	ViewBoards:         "View Boards",
	CreateBoards:       "Create Boards",
	EditBoards:         "Edit Boards",
	DeleteBoards:       "Delete Boards",
	ManageTasks:        "Manage Tasks",
	ManageTags:         "Manage Tags",
	ManageProfiles:     "Manage Profiles",
	ManageTeams:        "Manage Teams",
	ManageUsers:        "Manage Users",
	ViewPermissionData: "View Permission Data",
}

func (n Name) String() string { return string(n) }

// Display returns the human-readable label, falling back to the raw
// identifier for permissions seeded outside the known set.
func (n Name) Display() string {
	if label, ok := displayNames[n]; ok {
		return label
	}
	return string(n)
}

// Category groups permissions for the admin UI.
func (n Name) Category() string {
	switch n {
	case ManageProfiles, ManageTeams, ManageUsers, ViewPermissionData:
		return "administration"
	default:
		return "boards"
	}
}

// KnownNames lists the permissions this codebase checks, for seeding.
func KnownNames() []Name {
	names := make([]Name, 0, len(displayNames))
	for n := range displayNames {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Set is a deduplicated collection of permission names.
type Set map[Name]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[Name(n)] = struct{}{}
	}
	return s
}

func (s Set) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

func (s Set) Add(n Name) {
	s[n] = struct{}{}
}

// Names returns the set's contents sorted for stable output.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewSet(names...)
	return nil
}

// TeamMembership is a user's membership as seen by the resolver; order is
// insertion-stable for display but carries no authorization meaning.
type TeamMembership struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// EffectivePermissions is the flattened view of the permission graph for one
// user: direct profile permissions unioned with every profile of every team
// the user belongs to.
type EffectivePermissions struct {
	UserID      int64            `json:"user_id"`
	ProfileID   *int64           `json:"profile_id,omitempty"`
	ProfileName string           `json:"profile_name,omitempty"`
	Permissions Set              `json:"permissions"`
	Teams       []TeamMembership `json:"teams"`
	ResolvedAt  time.Time        `json:"resolved_at"`
}
