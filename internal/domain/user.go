package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account holder on the platform
type User struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	SerialNumber  string    `json:"serial_number"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"` // Never expose password hash in JSON
	Role          string    `json:"role"`
	Balance       float64   `json:"balance"`
	Profit        float64   `json:"profit"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserRole constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserStatus constants
const (
	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
	UserStatusRejected = "rejected"
)

// IsApproved reports whether the account may withdraw and transfer funds.
func (u *User) IsApproved() bool {
	return u.Status == UserStatusApproved
}

// Sanitized returns a copy of the user with the credential stripped.
// The JSON tag already hides the hash; clearing it covers non-JSON paths.
func (u *User) Sanitized() *User {
	out := *u
	out.PasswordHash = ""
	return &out
}
