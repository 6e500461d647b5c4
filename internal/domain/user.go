package domain

import "time"

// User is the stored account record behind authentication.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
