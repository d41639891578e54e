package domain

import "errors"

// ErrInvalidCredentials is returned when a username/password pair does not
// match a stored user. Unknown users and wrong passwords are not told apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Roles understood by the login collaborator.
const (
	RoleAdmin     = "admin"
	RoleCaregiver = "caregiver"
)

// User is an account allowed to operate the evaluation store.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}
