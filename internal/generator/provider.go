// Package generator builds itinerary payloads for the planner backend.
package generator

import (
	"context"

	"github.com/Rrens/trip-planner/internal/domain"
)

// Suggestions is the creative part of a plan, produced by a provider
type Suggestions struct {
	Activities  []string    `json:"activities"`
	FoodCulture FoodCulture `json:"food_culture"`
}

// Provider defines the interface for itinerary suggestion sources
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Suggest proposes activities and a food and culture overview
	Suggest(ctx context.Context, prefs domain.Preferences) (*Suggestions, error)
}
