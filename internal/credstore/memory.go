package credstore

import (
	"context"
	"sync"

	"github.com/Rrens/trip-planner/internal/domain"
)

// MemoryStore keeps credentials for the lifetime of the process
type MemoryStore struct {
	mu    sync.RWMutex
	creds domain.Credentials
}

// NewMemoryStore creates an empty (anonymous) store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(ctx context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *MemoryStore) UpdateTokens(ctx context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.AccessToken = accessToken
	if refreshToken != "" {
		s.creds.RefreshToken = refreshToken
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = domain.Credentials{}
	return nil
}
