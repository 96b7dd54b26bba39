package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level attached to a user.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// User represents a user entity in the domain.
// PasswordHashed is only populated by Repository.GetCredentials.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          *string
	PasswordHashed string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
