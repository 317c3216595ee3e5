package types

import "time"

// User represents a student account.
type User struct {
	// ID is the opaque unique identifier of the user.
	ID string `json:"id"`

	// Email is unique across users and is the sign-in key.
	Email string `json:"email"`

	// Name is the user's display name.
	Name string `json:"name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is set once at creation, UTC, second precision.
	CreatedAt time.Time `json:"createdAt"`
}
