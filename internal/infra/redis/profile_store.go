package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"truth-or-twist/internal/domain"
)

// ProfileStore keeps player profiles without expiry.
//
//	twist:profile:{playerID}            profile JSON
//	twist:players:known                 set used to deduplicate registration
//	twist:players:order                 list of players in registration order
//	twist:results:{gameID}              hash of applied results, one field per player
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) GetProfile(ctx context.Context, playerID string) (domain.PlayerProfile, bool, error) {
	raw, err := s.client.Get(ctx, profileKey(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PlayerProfile{}, false, nil
	}
	if err != nil {
		return domain.PlayerProfile{}, false, fmt.Errorf("get profile: %w", err)
	}
	var p domain.PlayerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.PlayerProfile{}, false, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, true, nil
}

func (s *ProfileStore) SaveProfile(ctx context.Context, profile domain.PlayerProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.client.Set(ctx, profileKey(profile.PlayerID), raw, 0).Err()
}

func (s *ProfileStore) RegisterPlayer(ctx context.Context, playerID string) (bool, error) {
	added, err := s.client.SAdd(ctx, keyPrefix+"players:known", playerID).Result()
	if err != nil {
		return false, fmt.Errorf("sadd player: %w", err)
	}
	if added == 0 {
		return false, nil
	}
	if err := s.client.RPush(ctx, keyPrefix+"players:order", playerID).Err(); err != nil {
		return false, fmt.Errorf("rpush player: %w", err)
	}
	return true, nil
}

func (s *ProfileStore) ListPlayers(ctx context.Context) ([]string, error) {
	players, err := s.client.LRange(ctx, keyPrefix+"players:order", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange players: %w", err)
	}
	return players, nil
}

// ClaimResult keeps one hash per game with a field per player, so free-form
// IDs never collide.
func (s *ProfileStore) ClaimResult(ctx context.Context, key domain.ResultKey) (bool, error) {
	claimed, err := s.client.HSetNX(ctx, resultsKey(key.GameID), key.PlayerID, "1").Result()
	if err != nil {
		return false, fmt.Errorf("hsetnx result: %w", err)
	}
	return claimed, nil
}

func (s *ProfileStore) ReleaseResult(ctx context.Context, key domain.ResultKey) error {
	if err := s.client.HDel(ctx, resultsKey(key.GameID), key.PlayerID).Err(); err != nil {
		return fmt.Errorf("hdel result: %w", err)
	}
	return nil
}

func profileKey(playerID string) string {
	return keyPrefix + "profile:" + playerID
}

func resultsKey(gameID string) string {
	return keyPrefix + "results:" + gameID
}
