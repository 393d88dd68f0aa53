package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Budget is the spending tier chosen by the traveller
type Budget string

const (
	BudgetEconomy  Budget = "economy"
	BudgetStandard Budget = "standard"
	BudgetLuxury   Budget = "luxury"
)

// TravelWith describes the travelling party
type TravelWith string

const (
	TravelSolo   TravelWith = "solo"
	TravelCouple TravelWith = "couple"
	TravelGroup  TravelWith = "group"
)

// Preferences are the inputs of itinerary generation.
// Wire keys follow the planner backend: "start" and "Days".
type Preferences struct {
	Origin      *string    `json:"start"`
	Destination string     `json:"destination" validate:"required"`
	Days        *int       `json:"Days" validate:"required"`
	Budget      Budget     `json:"budget" validate:"required"`
	TravelWith  TravelWith `json:"travelWith" validate:"required"`
}

// Status is the lifecycle tag of an itinerary
type Status string

const (
	StatusGenerated Status = "GENERATED"
	StatusSaved     Status = "SAVED"
	StatusApproved  Status = "APPROVED"
)

// Rank orders statuses GENERATED < SAVED < APPROVED; unknown values rank 0
func (s Status) Rank() int {
	switch s {
	case StatusGenerated:
		return 1
	case StatusSaved:
		return 2
	case StatusApproved:
		return 3
	}
	return 0
}

// Valid reports whether s is one of the three lifecycle statuses
func (s Status) Valid() bool {
	return s.Rank() > 0
}

// Itinerary is the client-side record driven by the lifecycle controller.
// ID is nil while Status is GENERATED and set once the server saved it.
type Itinerary struct {
	ID          *int64
	Preferences Preferences
	Payload     Payload
	Status      Status
}

// Clone returns a deep copy safe to hand out of the controller
func (it Itinerary) Clone() Itinerary {
	out := it
	if it.ID != nil {
		id := *it.ID
		out.ID = &id
	}
	if it.Preferences.Origin != nil {
		origin := *it.Preferences.Origin
		out.Preferences.Origin = &origin
	}
	if it.Preferences.Days != nil {
		days := *it.Preferences.Days
		out.Preferences.Days = &days
	}
	out.Payload = it.Payload.Clone()
	return out
}

// ItinerarySummary is one entry of the history listing
type ItinerarySummary struct {
	ID          int64       `json:"id"`
	Preferences Preferences `json:"preferences"`
	Itinerary   Payload     `json:"itinerary"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SavedItinerary is an itinerary persisted by the backend
type SavedItinerary struct {
	ItinerarySummary
	UserID uuid.UUID `json:"-"`
}

// GenerateRequest is the body of POST /api/planner/generate/
type GenerateRequest struct {
	Preferences Preferences `json:"preferences"`
	Email       string      `json:"email,omitempty"`
}

// GenerateResponse is the reply of the generate endpoint
type GenerateResponse struct {
	Itinerary  Payload `json:"itinerary"`
	EmailSent  bool    `json:"email_sent"`
	EmailError *string `json:"email_error"`
}

// SaveRequest is the body of POST /api/planner/save/
type SaveRequest struct {
	Preferences Preferences `json:"preferences"`
	Itinerary   Payload     `json:"itinerary"`
	Email       string      `json:"email,omitempty"`
}

// SaveResponse is the reply of the save endpoint
type SaveResponse struct {
	ID         int64   `json:"id"`
	Status     Status  `json:"status"`
	EmailSent  bool    `json:"email_sent"`
	EmailError *string `json:"email_error"`
}

// ApproveRequest is the body of POST /api/planner/approve/
type ApproveRequest struct {
	ItineraryID int64  `json:"itinerary_id" validate:"required"`
	NewStatus   Status `json:"new_status" validate:"required"`
}

// ApproveResponse is the reply of the approve endpoint
type ApproveResponse struct {
	Status Status `json:"status"`
}

// ItineraryRepository defines the interface for itinerary storage
type ItineraryRepository interface {
	Create(ctx context.Context, it *SavedItinerary) error
	GetByID(ctx context.Context, id int64) (*SavedItinerary, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]SavedItinerary, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenRevocations records refresh tokens invalidated by logout
type TokenRevocations interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
