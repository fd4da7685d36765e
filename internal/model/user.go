// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account created on the first successful Google login.
//
// ID is the provider's stable subject identifier ("sub"), not a generated
// key: one Google account maps to exactly one row. Profile fields are
// captured once and never refreshed on later logins.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
