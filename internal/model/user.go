// Package model defines the data structures used throughout the application.
// Structs here are plain data: no database handles, no HTTP types.
package model

import "time"

// User is a registered account.
//
// Accounts come from two places: the username/password registration form,
// and the optional GitHub sign-in. A GitHub-only account has no password
// hash and may have no email (GitHub lets people hide it), which is why
// Email is nullable in the database and GitHubID is a pointer here.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	PasswordHash string    `json:"-"` // bcrypt output; never serialized
	GitHubID     *int64    `json:"githubId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is the public, minimal view of a user embedded in other payloads
// (leading bidder, comment author). It never carries email or hashes.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
