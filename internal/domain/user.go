package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes administrative users from card holders.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// User represents a simplified view of a user, containing only the data the
// card-service needs: identity, credentials for login, role, and enabled flag.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserListOptions controls filtering and pagination for user listings.
type UserListOptions struct {
	Enabled *bool
	Limit   int
	Offset  int
}
