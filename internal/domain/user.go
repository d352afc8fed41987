package domain

import "time"

// Role is the coarse authorization label for a user. Exactly one role per
// user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole validates a role string from storage or input.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	}
	return "", false
}

// User is a stored account record. TOTPSecret is generated once at
// registration and immutable thereafter; it leaves the server exactly once,
// in the enrollment response.
type User struct {
	ID           string
	Username     string
	PasswordHash string // argon2id PHC encoded, never plaintext
	TOTPSecret   string // base32 encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
