package auth

import "time"

// User is the credential view of an employee account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Username     string
	PasswordHash string
	AccessLevel  string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
