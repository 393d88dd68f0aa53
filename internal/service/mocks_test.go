package service

import (
	"context"
	"encoding/json"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockItineraryRepository mocks the ItineraryRepository interface
type MockItineraryRepository struct {
	mock.Mock
}

func (m *MockItineraryRepository) Create(ctx context.Context, it *domain.SavedItinerary) error {
	args := m.Called(ctx, it)
	return args.Error(0)
}

func (m *MockItineraryRepository) GetByID(ctx context.Context, id int64) (*domain.SavedItinerary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedItinerary), args.Error(1)
}

func (m *MockItineraryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavedItinerary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.SavedItinerary), args.Error(1)
}

func (m *MockItineraryRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockItineraryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockGenerator mocks the Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prefs domain.Preferences) (json.RawMessage, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockMailer mocks the mailer.Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendItinerary(ctx context.Context, to string, prefs domain.Preferences, itinerary domain.Payload) error {
	args := m.Called(ctx, to, prefs, itinerary)
	return args.Error(0)
}
