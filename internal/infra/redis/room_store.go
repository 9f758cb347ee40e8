package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"truth-or-twist/internal/domain"
)

const keyPrefix = "twist:"

// RoomStore keeps room records as JSON strings so any instance can serve a room.
// Keys:
//
//	twist:rooms:counter       INCR-allocated room numbers
//	twist:room:{roomID}       room record
//
// ttl bounds how long rooms linger after their last write; zero keeps them forever.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func (s *RoomStore) NextRoomNumber(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, keyPrefix+"rooms:counter").Result()
	if err != nil {
		return 0, fmt.Errorf("incr room counter: %w", err)
	}
	return n, nil
}

func (s *RoomStore) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	raw, err := s.client.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return domain.Room{}, fmt.Errorf("unmarshal room: %w", err)
	}
	if room.Scores == nil {
		room.Scores = make(map[string]int)
	}
	return room, nil
}

func (s *RoomStore) SaveRoom(ctx context.Context, room domain.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	if err := s.client.Set(ctx, roomKey(room.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set room: %w", err)
	}
	return nil
}

func roomKey(roomID string) string {
	return keyPrefix + "room:" + roomID
}

// SubmissionStore keeps each round's tally in one hash; fields are player IDs.
// HSETNX makes submissions write-once across instances.
//
//	HSET twist:room:{roomID}:round:{n}:submissions {playerID} {submission JSON}
type SubmissionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionStore(client *redis.Client, ttl time.Duration) *SubmissionStore {
	return &SubmissionStore{client: client, ttl: ttl}
}

func (s *SubmissionStore) PutSubmission(ctx context.Context, sub domain.Submission) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	key := tallyKey(sub.Key().RoundKey())
	created, err := s.client.HSetNX(ctx, key, sub.PlayerID, raw).Result()
	if err != nil {
		return fmt.Errorf("hsetnx submission: %w", err)
	}
	if !created {
		return domain.ErrAlreadySubmitted
	}
	if s.ttl > 0 {
		// best-effort expiry; the tally is dead once the round commits
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *SubmissionStore) ListSubmissions(ctx context.Context, key domain.RoundKey) ([]domain.Submission, error) {
	fields, err := s.client.HGetAll(ctx, tallyKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall tally: %w", err)
	}
	out := make([]domain.Submission, 0, len(fields))
	for player, raw := range fields {
		var sub domain.Submission
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("unmarshal submission of %s: %w", player, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func tallyKey(key domain.RoundKey) string {
	return fmt.Sprintf("%sroom:%s:round:%d:submissions", keyPrefix, key.RoomID, key.Round)
}
