package user

import "time"

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // HR staff, can enter and correct attendance
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// User is a staff account. Coordinators and HR staff punch like employees and
// are identified on devices by UserCode.
type User struct {
	ID        string
	Email     string
	FullName  string
	UserCode  *string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsManager checks if the role is manager or owner
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner
}

// IsManager checks if user is manager or owner
func (u *User) IsManager() bool {
	return u.Role.IsManager()
}
