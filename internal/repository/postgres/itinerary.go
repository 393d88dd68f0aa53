package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ItineraryRepository handles saved itinerary data access
type ItineraryRepository struct {
	db *DB
}

// NewItineraryRepository creates a new itinerary repository
func NewItineraryRepository(db *DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

// Create inserts an itinerary and fills in its id and creation time
func (r *ItineraryRepository) Create(ctx context.Context, it *domain.SavedItinerary) error {
	prefs, err := json.Marshal(it.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	query := `
		INSERT INTO itineraries (user_id, preferences, itinerary, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}

	err = r.db.Pool.QueryRow(ctx, query,
		it.UserID,
		prefs,
		[]byte(it.Itinerary),
		it.Status,
		it.CreatedAt,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("failed to create itinerary: %w", err)
	}

	return nil
}

// GetByID retrieves an itinerary by ID
func (r *ItineraryRepository) GetByID(ctx context.Context, id int64) (*domain.SavedItinerary, error) {
	query := `
		SELECT id, user_id, preferences, itinerary, status, created_at
		FROM itineraries
		WHERE id = $1
	`

	it, err := scanItinerary(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}
	return it, nil
}

// ListByUser retrieves a user's itineraries, newest first
func (r *ItineraryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavedItinerary, error) {
	query := `
		SELECT id, user_id, preferences, itinerary, status, created_at
		FROM itineraries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	var items []domain.SavedItinerary
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan itinerary: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}

	return items, nil
}

// UpdateStatus sets the status of an itinerary
func (r *ItineraryRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE itineraries SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update itinerary status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("itinerary %d not found", id)
	}
	return nil
}

// Delete removes an itinerary and reports whether it existed
func (r *ItineraryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM itineraries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete itinerary: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanItinerary(row pgx.Row) (*domain.SavedItinerary, error) {
	var it domain.SavedItinerary
	var prefsJSON, payload []byte

	err := row.Scan(
		&it.ID,
		&it.UserID,
		&prefsJSON,
		&payload,
		&it.Status,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(prefsJSON, &it.Preferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	it.Itinerary = domain.Payload(payload)

	return &it, nil
}
