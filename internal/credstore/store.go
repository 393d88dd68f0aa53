// Package credstore holds the access credential, the refresh credential and
// the user profile of the planner client. Only the request gateway and the
// sign-in/sign-out flows write to it.
package credstore

import (
	"context"

	"github.com/Rrens/trip-planner/internal/domain"
)

// Store defines the read/write contract of the credential store
type Store interface {
	// Load returns the current credentials; an empty record means anonymous
	Load(ctx context.Context) (domain.Credentials, error)

	// Save replaces the whole record (sign-in)
	Save(ctx context.Context, creds domain.Credentials) error

	// UpdateTokens overwrites the access token in place; a non-empty refresh
	// token replaces the stored one, an empty one keeps it
	UpdateTokens(ctx context.Context, accessToken, refreshToken string) error

	// Clear removes every credential and the profile (sign-out, expired session)
	Clear(ctx context.Context) error
}
