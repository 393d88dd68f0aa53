package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/mailer"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Generator produces itinerary payloads
type Generator interface {
	Generate(ctx context.Context, prefs domain.Preferences) (json.RawMessage, error)
}

// PlannerService handles itinerary generation and the saved itinerary lifecycle
type PlannerService struct {
	items     domain.ItineraryRepository
	generator Generator
	mailer    mailer.Mailer
	timeout   time.Duration
}

// NewPlannerService creates a new planner service
func NewPlannerService(
	items domain.ItineraryRepository,
	generator Generator,
	mailer mailer.Mailer,
	timeout time.Duration,
) *PlannerService {
	return &PlannerService{
		items:     items,
		generator: generator,
		mailer:    mailer,
		timeout:   timeout,
	}
}

// Generate builds a new itinerary. user is nil for anonymous callers.
func (s *PlannerService) Generate(ctx context.Context, user *domain.User, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	if err := checkDays(req.Preferences); err != nil {
		return nil, err
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	payload, err := s.generator.Generate(genCtx, req.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to generate itinerary: %w", err)
	}

	resp := &domain.GenerateResponse{Itinerary: domain.Payload(payload)}
	resp.EmailSent, resp.EmailError = s.email(ctx, recipient(req.Email, user), req.Preferences, resp.Itinerary)
	return resp, nil
}

// Save stores a generated itinerary for user with status SAVED
func (s *PlannerService) Save(ctx context.Context, user *domain.User, req domain.SaveRequest) (*domain.SaveResponse, error) {
	if err := checkDays(req.Preferences); err != nil {
		return nil, err
	}
	if req.Itinerary.IsEmpty() {
		return nil, fmt.Errorf("%w: itinerary is required", ErrInvalidInput)
	}
	payload, err := domain.NormalizePayload(req.Itinerary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	it := &domain.SavedItinerary{
		ItinerarySummary: domain.ItinerarySummary{
			Preferences: req.Preferences,
			Itinerary:   payload,
			Status:      domain.StatusSaved,
			CreatedAt:   time.Now(),
		},
		UserID: user.ID,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("failed to save itinerary: %w", err)
	}

	log.Info().Int64("itinerary_id", it.ID).Str("user_id", user.ID.String()).Msg("Itinerary saved")

	resp := &domain.SaveResponse{ID: it.ID, Status: it.Status}
	resp.EmailSent, resp.EmailError = s.email(ctx, recipient(req.Email, user), req.Preferences, payload)
	return resp, nil
}

// Approve flips a SAVED itinerary owned by userID to APPROVED
func (s *PlannerService) Approve(ctx context.Context, userID uuid.UUID, req domain.ApproveRequest) (*domain.ApproveResponse, error) {
	if req.NewStatus != domain.StatusApproved {
		return nil, fmt.Errorf("%w: new_status must be %s", ErrInvalidInput, domain.StatusApproved)
	}

	it, err := s.owned(ctx, userID, req.ItineraryID)
	if err != nil {
		return nil, err
	}

	switch it.Status {
	case domain.StatusSaved:
	case domain.StatusApproved:
		return nil, fmt.Errorf("%w: itinerary is already approved", ErrConflict)
	default:
		return nil, fmt.Errorf("%w: only saved itineraries can be approved", ErrConflict)
	}

	if err := s.items.UpdateStatus(ctx, it.ID, domain.StatusApproved); err != nil {
		return nil, fmt.Errorf("failed to approve itinerary: %w", err)
	}

	return &domain.ApproveResponse{Status: domain.StatusApproved}, nil
}

// History lists the itineraries of userID, newest first
func (s *PlannerService) History(ctx context.Context, userID uuid.UUID) ([]domain.ItinerarySummary, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}

	out := make([]domain.ItinerarySummary, 0, len(items))
	for _, it := range items {
		out = append(out, it.ItinerarySummary)
	}
	return out, nil
}

// Delete removes an itinerary owned by userID
func (s *PlannerService) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	deleted, err := s.items.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// owned loads an itinerary, hiding those of other users as not found
func (s *PlannerService) owned(ctx context.Context, userID uuid.UUID, id int64) (*domain.SavedItinerary, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}
	if it == nil || it.UserID != userID {
		return nil, ErrNotFound
	}
	return it, nil
}

func (s *PlannerService) email(ctx context.Context, to string, prefs domain.Preferences, payload domain.Payload) (bool, *string) {
	if to == "" || s.mailer == nil {
		return false, nil
	}
	if err := s.mailer.SendItinerary(ctx, to, prefs, payload); err != nil {
		log.Warn().Err(err).Str("to", to).Msg("Failed to send itinerary email")
		msg := err.Error()
		return false, &msg
	}
	return true, nil
}

func recipient(explicit string, user *domain.User) string {
	if explicit != "" {
		return explicit
	}
	if user != nil {
		return user.Email
	}
	return ""
}

func checkDays(prefs domain.Preferences) error {
	if prefs.Days == nil || *prefs.Days <= 0 {
		return fmt.Errorf("%w: Days must be a positive integer", ErrInvalidInput)
	}
	return nil
}
