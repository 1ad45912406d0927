package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the single role claim carried by access tokens
type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleUser  RoleType = "user"
)

type User struct {
	ID           string    `json:"id,omitempty"`            // Unique identifier for the user
	Email        string    `json:"email,omitempty"`         // User's email address
	Username     string    `json:"username,omitempty"`      // Unique username
	PasswordHash string    `json:"-"`                       // Hashed version of the user's password - never serialize
	Role         RoleType  `json:"role,omitempty"`          // Role claim minted into access tokens
	TokenVersion int       `json:"token_version,omitempty"` // Bumped to invalidate outstanding access tokens
	DateJoined   time.Time `json:"date_joined,omitempty"`   // Date and time when the user registered
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
