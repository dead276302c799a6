package models

import "time"

// Role is the member's authorization level within the association.
type Role string

const (
	// RoleMember is an ordinary branch member.
	RoleMember Role = "member"
	// RoleBEC is a branch executive committee officer.
	RoleBEC Role = "bec"
	// RoleNEC is a national executive committee officer.
	RoleNEC Role = "nec"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleBEC, RoleNEC:
		return true
	default:
		return false
	}
}

// ParseRole converts s into a Role. An empty string maps to RoleMember.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleMember, true
	}
	r := Role(s)
	return r, r.IsValid()
}

// AllRoles returns the closed role set, lowest privilege first.
func AllRoles() []Role {
	return []Role{RoleMember, RoleBEC, RoleNEC}
}

// Status is the membership state of a user record.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	// StatusAlumni is set when an alumni record is created for the user.
	StatusAlumni Status = "alumni"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusAlumni:
		return true
	default:
		return false
	}
}

// User is a registered member. PasswordHash is never serialized.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Status       Status    `db:"status" json:"status"`
	BranchID     *int64    `db:"branch_id" json:"branch_id"`
	IsBECMember  bool      `db:"is_bec_member" json:"is_bec_member"`
	NECPosition  *string   `db:"nec_position" json:"nec_position,omitempty"`
	BECPosition  *string   `db:"bec_position" json:"bec_position,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user may log in.
func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

// InBranch reports whether the user is affiliated with branchID.
func (u *User) InBranch(branchID int64) bool {
	return u != nil && u.BranchID != nil && *u.BranchID == branchID
}

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	BranchID    *int64  `json:"branch_id"`
	IsBECMember bool    `json:"is_bec_member"`
	NECPosition *string `json:"nec_position"`
	BECPosition *string `json:"bec_position"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	Status      *string `json:"status"`
	BranchID    *int64  `json:"branch_id"`
	IsBECMember *bool   `json:"is_bec_member"`
	NECPosition *string `json:"nec_position"`
	BECPosition *string `json:"bec_position"`
}
