package domain

import "time"

// GlobalRole enumerates application-wide roles, distinct from the
// per-project review tiers.
type GlobalRole string

const (
	GlobalRoleUser      GlobalRole = "users"
	GlobalRoleSemiAdmin GlobalRole = "semi-admin"
	GlobalRoleAdmin     GlobalRole = "admin"
	GlobalRoleDev       GlobalRole = "dev"
)

// User is the domain model for engagement staff accounts. Accounts are
// provisioned pending approval and are blocked rather than deleted.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         GlobalRole
	Approved     bool
	Blocked      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDevOrAdmin reports whether the user may take administrative correction
// actions that bypass project-local role checks.
func (u *User) IsDevOrAdmin() bool {
	return u.Role == GlobalRoleDev || u.Role == GlobalRoleAdmin
}
