package models

import "time"

// User represents a registered account. Email is the login identity.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
