package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `db:"id"`

	// Email is the user's email address (unique).
	// Used for login and campaign e-mails.
	Email string `db:"email"`

	// DisplayName is shown on leaderboards and in e-mails.
	DisplayName string `db:"display_name"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `db:"password_hash"`

	// PayoutAccountID is the processor's connected account id, empty until
	// the user starts payout onboarding.
	PayoutAccountID string `db:"payout_account_id"`

	// PayoutsEnabled is set once the processor reports the connected
	// account can receive transfers.
	PayoutsEnabled bool `db:"payouts_enabled"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Identity is the authenticated caller of an operation. It is resolved once
// per request at the boundary and passed explicitly into core operations.
type Identity struct {
	UserID string
	Email  string
}

// Valid reports whether the identity refers to an authenticated user.
func (id *Identity) Valid() bool {
	return id != nil && id.UserID != ""
}
