package models

// UserPatch is a partial user update as received from a client. Nil fields
// were absent from the request body.
type UserPatch struct {
	Name           *string `json:"name" validate:"omitempty,notblank,max=50"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Password       *string `json:"password" validate:"omitempty,min=6"`
	Number         *string `json:"number" validate:"omitempty,phone"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,max=512"`
	Role           *Role   `json:"role" validate:"omitempty,oneof=user admin super_admin"`
	ManagedUsers   *int    `json:"managed_users" validate:"omitempty,min=0"`
}

// ProfileFields may be changed by anyone allowed to edit the record.
type ProfileFields struct {
	Name     *string
	Email    *string
	Password *string
	Number   *string
}

// AdminFields only exist on admin records and are managed by super admins.
type AdminFields struct {
	ManagedUsers *int
}

// UserUpdate is a UserPatch after role filtering. Fields the actor may not
// touch are absent by construction.
type UserUpdate struct {
	Profile        ProfileFields
	ProfilePicture *string
	Role           *Role
	Admin          *AdminFields
}

// FilterFor reduces the patch to what actor may change on target. A plain
// user target only ever receives profile fields; promotion goes through the
// admin request workflow.
func (p UserPatch) FilterFor(actor, target *User) UserUpdate {
	upd := UserUpdate{
		Profile: ProfileFields{
			Name:     p.Name,
			Email:    p.Email,
			Password: p.Password,
			Number:   p.Number,
		},
	}

	if target.Role == RoleUser {
		return upd
	}
	upd.ProfilePicture = p.ProfilePicture

	if p.Role != nil && actor.IsAdmin() {
		touchesTopTier := *p.Role == RoleSuperAdmin || target.Role == RoleSuperAdmin
		if !touchesTopTier || actor.IsSuperAdmin() {
			upd.Role = p.Role
		}
	}

	if p.ManagedUsers != nil && target.Role == RoleAdmin && actor.IsSuperAdmin() {
		upd.Admin = &AdminFields{ManagedUsers: p.ManagedUsers}
	}

	return upd
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Profile.Name == nil && u.Profile.Email == nil && u.Profile.Password == nil &&
		u.Profile.Number == nil && u.ProfilePicture == nil && u.Role == nil && u.Admin == nil
}

// Columns maps the update onto database columns. The password must already
// be hashed by the caller.
func (u UserUpdate) Columns() map[string]any {
	cols := make(map[string]any)
	if u.Profile.Name != nil {
		cols["name"] = *u.Profile.Name
	}
	if u.Profile.Email != nil {
		cols["email"] = *u.Profile.Email
	}
	if u.Profile.Password != nil {
		cols["password"] = *u.Profile.Password
	}
	if u.Profile.Number != nil {
		cols["number"] = *u.Profile.Number
	}
	if u.ProfilePicture != nil {
		cols["profile_picture"] = *u.ProfilePicture
	}
	if u.Admin != nil && u.Admin.ManagedUsers != nil {
		cols["managed_users"] = *u.Admin.ManagedUsers
	}
	return cols
}

// ChallengeListsPatch replaces a user's challenge lists by id.
type ChallengeListsPatch struct {
	CompletedChallenges *[]uint `json:"completed_challenges"`
	OngoingChallenges   *[]uint `json:"ongoing_challenges"`
	CreatedChallenges   *[]uint `json:"created_challenges"`
}
