package memory

import (
	"context"
	"sync"

	"truth-or-twist/internal/domain"
)

// ProfileStore is an in-memory implementation of app.ProfileRepository.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.PlayerProfile
	known    map[string]struct{}
	order    []string
	results  map[domain.ResultKey]struct{}
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.PlayerProfile),
		known:    make(map[string]struct{}),
		results:  make(map[domain.ResultKey]struct{}),
	}
}

func (s *ProfileStore) GetProfile(_ context.Context, playerID string) (domain.PlayerProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[playerID]
	return p, ok, nil
}

func (s *ProfileStore) SaveProfile(_ context.Context, profile domain.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.PlayerID] = profile
	return nil
}

func (s *ProfileStore) RegisterPlayer(_ context.Context, playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[playerID]; ok {
		return false, nil
	}
	s.known[playerID] = struct{}{}
	s.order = append(s.order, playerID)
	return true, nil
}

func (s *ProfileStore) ListPlayers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

func (s *ProfileStore) ClaimResult(_ context.Context, key domain.ResultKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[key]; ok {
		return false, nil
	}
	s.results[key] = struct{}{}
	return true, nil
}

func (s *ProfileStore) ReleaseResult(_ context.Context, key domain.ResultKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, key)
	return nil
}
