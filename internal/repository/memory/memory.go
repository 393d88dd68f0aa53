// Package memory holds process-local repositories used when no database is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/google/uuid"
)

// UserRepository keeps users in memory
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("failed to create user: email %s already exists", user.Email)
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

// ItineraryRepository keeps saved itineraries in memory with sequential ids
type ItineraryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.SavedItinerary
}

func NewItineraryRepository() *ItineraryRepository {
	return &ItineraryRepository{items: make(map[int64]domain.SavedItinerary)}
}

func (r *ItineraryRepository) Create(ctx context.Context, it *domain.SavedItinerary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	it.ID = r.nextID
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	stored := *it
	stored.Itinerary = it.Itinerary.Clone()
	r.items[it.ID] = stored
	return nil
}

func (r *ItineraryRepository) GetByID(ctx context.Context, id int64) (*domain.SavedItinerary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	it.Itinerary = it.Itinerary.Clone()
	return &it, nil
}

func (r *ItineraryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavedItinerary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.SavedItinerary
	for _, it := range r.items {
		if it.UserID == userID {
			it.Itinerary = it.Itinerary.Clone()
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ItineraryRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return fmt.Errorf("itinerary %d not found", id)
	}
	it.Status = status
	r.items[id] = it
	return nil
}

func (r *ItineraryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// Revocations records revoked token ids until they expire
type Revocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if r.now().After(exp) {
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
