package memory

import (
	"context"
	"sync"

	"truth-or-twist/internal/domain"
)

// RoomStore is an in-memory implementation of app.RoomRepository.
type RoomStore struct {
	mu      sync.RWMutex
	counter int64
	rooms   map[string]domain.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]domain.Room),
	}
}

func (s *RoomStore) NextRoomNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter, nil
}

func (s *RoomStore) GetRoom(_ context.Context, roomID string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *RoomStore) SaveRoom(_ context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

// SubmissionStore is an in-memory implementation of app.SubmissionRepository.
type SubmissionStore struct {
	mu     sync.RWMutex
	cells  map[domain.SubmissionKey]domain.Submission
	rounds map[domain.RoundKey][]domain.SubmissionKey
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		cells:  make(map[domain.SubmissionKey]domain.Submission),
		rounds: make(map[domain.RoundKey][]domain.SubmissionKey),
	}
}

func (s *SubmissionStore) PutSubmission(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sub.Key()
	if _, ok := s.cells[key]; ok {
		return domain.ErrAlreadySubmitted
	}
	s.cells[key] = sub
	s.rounds[key.RoundKey()] = append(s.rounds[key.RoundKey()], key)
	return nil
}

// ListSubmissions returns the round's submissions in arrival order.
func (s *SubmissionStore) ListSubmissions(_ context.Context, key domain.RoundKey) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.rounds[key]
	out := make([]domain.Submission, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.cells[k])
	}
	return out, nil
}
