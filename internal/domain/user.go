package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the lightweight user profile kept next to the credentials
type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"full_name"`
}

// Credentials is the record held by the credential store.
// An empty AccessToken means the client is anonymous.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Profile      Profile
}

// Anonymous reports whether no access credential is present
func (c Credentials) Anonymous() bool {
	return c.AccessToken == ""
}

// User represents a registered account on the backend
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserCreate represents registration data
type UserCreate struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"max=255"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by the login endpoint
type LoginResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// RefreshRequest is the body of the token refresh endpoint
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// RefreshResponse carries a new access token and, when rotated, a new refresh token
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
