// Package models defines the persisted entities and error types of the API.
package models

import "time"

// Role is a user's privilege tier. Each tier is a superset of the one below.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a recognised role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdminTier reports whether r carries admin capabilities.
func (r Role) IsAdminTier() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// AdminRequestStatus tracks a user's request for the admin role.
type AdminRequestStatus string

const (
	AdminRequestNone     AdminRequestStatus = "none"
	AdminRequestPending  AdminRequestStatus = "pending"
	AdminRequestApproved AdminRequestStatus = "approved"
	AdminRequestRejected AdminRequestStatus = "rejected"
)

// AdminRequest is embedded in User with the admin_request_ column prefix.
type AdminRequest struct {
	Status        AdminRequestStatus `gorm:"type:varchar(20);not null;default:'none';index" json:"status"`
	RequestedAt   *time.Time         `json:"requested_at,omitempty"`
	ProcessedByID *uint              `json:"processed_by_id,omitempty"`
	ProcessedAt   *time.Time         `json:"processed_at,omitempty"`
	Reason        string             `gorm:"type:text" json:"reason,omitempty"`
}

// User represents a marketplace account.
type User struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"size:50;not null" json:"name"`
	Email          string       `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password       string       `gorm:"not null" json:"-"`
	Number         string       `gorm:"size:32;not null;uniqueIndex" json:"number"`
	Role           Role         `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	ProfilePicture string       `gorm:"size:512" json:"profile_picture,omitempty"`
	ManagedUsers   int          `gorm:"not null;default:0" json:"managed_users,omitempty"`
	AdminRequest   AdminRequest `gorm:"embedded;embeddedPrefix:admin_request_" json:"admin_request"`

	CompletedChallenges []Challenge `gorm:"many2many:user_completed_challenges;" json:"completed_challenges,omitempty"`
	OngoingChallenges   []Challenge `gorm:"many2many:user_ongoing_challenges;" json:"ongoing_challenges,omitempty"`
	CreatedChallenges   []Challenge `gorm:"many2many:user_created_challenges;" json:"created_challenges,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdminTier()
}

func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// HasPendingAdminRequest reports whether a request awaits a super admin.
func (u *User) HasPendingAdminRequest() bool {
	return u.AdminRequest.Status == AdminRequestPending
}

// Challenge list association names, also used as gorm association keys.
const (
	ListCompleted = "CompletedChallenges"
	ListOngoing   = "OngoingChallenges"
	ListCreated   = "CreatedChallenges"
)

// ListsClearedOnRoleChange returns the challenge lists a user may not hold
// once they carry role r.
func ListsClearedOnRoleChange(r Role) []string {
	if r.IsAdminTier() {
		return []string{ListCompleted, ListOngoing}
	}
	return []string{ListCreated}
}

// UserSummary is the public projection returned from login.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// ChallengeList is a counted list of challenges for the stats view.
type ChallengeList struct {
	Count      int         `json:"count"`
	Challenges []Challenge `json:"challenges"`
}

// UserStats summarises the challenge lists a user holds.
type UserStats struct {
	CompletedChallenges ChallengeList `json:"completed_challenges"`
	OngoingChallenges   ChallengeList `json:"ongoing_challenges"`
	CreatedChallenges   ChallengeList `json:"created_challenges"`
}

func newChallengeList(items []Challenge) ChallengeList {
	if items == nil {
		items = []Challenge{}
	}
	return ChallengeList{Count: len(items), Challenges: items}
}

// Stats builds the stats view from the preloaded lists.
func (u *User) Stats() UserStats {
	return UserStats{
		CompletedChallenges: newChallengeList(u.CompletedChallenges),
		OngoingChallenges:   newChallengeList(u.OngoingChallenges),
		CreatedChallenges:   newChallengeList(u.CreatedChallenges),
	}
}
