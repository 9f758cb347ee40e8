package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"truth-or-twist/internal/domain"
)

// FinalizationMode selects which entry point updates profiles when a game ends.
type FinalizationMode string

const (
	// FinalizeInline applies room scores to profiles when the last round is scored.
	FinalizeInline FinalizationMode = "inline"
	// FinalizeExternal only snapshots the ranking; results arrive through UpdateProfile.
	FinalizeExternal FinalizationMode = "external"
)

// ParseFinalizationMode maps a config value to a mode. Empty means inline.
func ParseFinalizationMode(raw string) (FinalizationMode, error) {
	switch FinalizationMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FinalizeInline:
		return FinalizeInline, nil
	case FinalizeExternal:
		return FinalizeExternal, nil
	default:
		return "", fmt.Errorf("unknown finalization mode %q", raw)
	}
}

// Leaderboard owns player profiles and the global ranking.
// Profile read-modify-write cycles are serialized by mu.
type Leaderboard struct {
	profiles ProfileRepository
	mode     FinalizationMode
	log      logrus.FieldLogger
	mu       sync.Mutex
}

func NewLeaderboard(profiles ProfileRepository, mode FinalizationMode, log logrus.FieldLogger) *Leaderboard {
	if log == nil {
		log = discardLogger()
	}
	if mode == "" {
		mode = FinalizeInline
	}
	return &Leaderboard{profiles: profiles, mode: mode, log: log}
}

// Mode reports the configured finalization policy.
func (l *Leaderboard) Mode() FinalizationMode {
	return l.mode
}

// Ranking orders a room's players by score, keeping join order on ties.
func Ranking(room domain.Room) []domain.RankingEntry {
	ranking := make([]domain.RankingEntry, 0, len(room.Players))
	for _, p := range room.Players {
		ranking = append(ranking, domain.RankingEntry{PlayerID: p, Score: room.Scores[p]})
	}
	sort.SliceStable(ranking, func(i, k int) bool {
		return ranking[i].Score > ranking[k].Score
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking
}

// FinalizeGame computes the final ranking of room and, in inline mode, folds
// it into player profiles. Results already recorded for this game are skipped,
// so a retried finalization never double-counts.
func (l *Leaderboard) FinalizeGame(ctx context.Context, room domain.Room) ([]domain.RankingEntry, error) {
	ranking := Ranking(room)
	if l.mode == FinalizeExternal {
		return ranking, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range ranking {
		key := domain.ResultKey{GameID: room.GameKey(), PlayerID: entry.PlayerID}
		result := domain.GameResult{XPEarned: entry.Score, Won: entry.Rank == 1, GameScore: entry.Score}
		if _, err := l.applyLocked(ctx, key, result); err != nil {
			if errors.Is(err, domain.ErrResultAlreadyRecorded) {
				continue
			}
			return nil, err
		}
	}
	l.log.WithFields(logrus.Fields{"room": room.ID, "game": room.GameKey(), "players": len(ranking)}).Info("profiles updated")
	return ranking, nil
}

// UpdateProfile applies an externally computed game result. It is only accepted
// in external mode; inline deployments finalize from room scores. A game's
// result is applied to a player at most once.
func (l *Leaderboard) UpdateProfile(ctx context.Context, gameID, playerID string, result domain.GameResult) (domain.PlayerProfile, error) {
	if strings.TrimSpace(playerID) == "" {
		return domain.PlayerProfile{}, domain.ErrPlayerNotFound
	}
	if strings.TrimSpace(gameID) == "" {
		return domain.PlayerProfile{}, fmt.Errorf("%w: missing game id", domain.ErrInvalidResult)
	}
	if result.XPEarned < 0 || result.GameScore < 0 {
		return domain.PlayerProfile{}, fmt.Errorf("%w: negative xp or score", domain.ErrInvalidResult)
	}
	if l.mode != FinalizeExternal {
		return domain.PlayerProfile{}, fmt.Errorf("%w: results are finalized inline", domain.ErrInvalidState)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(ctx, domain.ResultKey{GameID: gameID, PlayerID: playerID}, result)
}

// applyLocked claims the result marker before the profile write. A claim whose
// profile write failed is released so a retry can apply it.
func (l *Leaderboard) applyLocked(ctx context.Context, key domain.ResultKey, result domain.GameResult) (domain.PlayerProfile, error) {
	claimed, err := l.profiles.ClaimResult(ctx, key)
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("claim result: %w", err)
	}
	if !claimed {
		return domain.PlayerProfile{}, domain.ErrResultAlreadyRecorded
	}

	profile, err := l.applyResult(ctx, key.PlayerID, result)
	if err != nil {
		if rerr := l.profiles.ReleaseResult(ctx, key); rerr != nil {
			l.log.WithFields(logrus.Fields{"game": key.GameID, "player": key.PlayerID}).WithError(rerr).Error("release result claim")
		}
		return domain.PlayerProfile{}, err
	}
	return profile, nil
}

func (l *Leaderboard) applyResult(ctx context.Context, playerID string, result domain.GameResult) (domain.PlayerProfile, error) {
	profile, err := l.ensureLocked(ctx, playerID)
	if err != nil {
		return domain.PlayerProfile{}, err
	}
	profile.TotalXP += result.XPEarned
	profile.GamesPlayed++
	if result.Won {
		profile.Wins++
		profile.WinStreak++
	} else {
		profile.WinStreak = 0
	}
	profile.BestStreak = max(profile.BestStreak, profile.WinStreak)
	profile.BestScore = max(profile.BestScore, result.GameScore)

	if err := l.profiles.SaveProfile(ctx, profile); err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// RegisterPlayer creates the profile if needed and updates the nickname.
// An empty nickname leaves the stored one unchanged.
func (l *Leaderboard) RegisterPlayer(ctx context.Context, playerID, nickname string) (domain.PlayerProfile, error) {
	if strings.TrimSpace(playerID) == "" {
		return domain.PlayerProfile{}, domain.ErrPlayerNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	profile, err := l.ensureLocked(ctx, playerID)
	if err != nil {
		return domain.PlayerProfile{}, err
	}
	nick := truncateRunes(strings.TrimSpace(nickname), domain.MaxNicknameLength)
	if nick != "" && nick != profile.Nickname {
		profile.Nickname = nick
		if err := l.profiles.SaveProfile(ctx, profile); err != nil {
			return domain.PlayerProfile{}, fmt.Errorf("save profile: %w", err)
		}
	}
	return profile, nil
}

// GetPlayerProfile never fails for unknown players; it reports Registered=false.
func (l *Leaderboard) GetPlayerProfile(ctx context.Context, playerID string) (domain.PlayerProfile, error) {
	profile, found, err := l.profiles.GetProfile(ctx, playerID)
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return domain.PlayerProfile{PlayerID: playerID}, nil
	}
	return profile, nil
}

// GetLeaderboard ranks every player with XP by total XP, top LeaderboardSize.
func (l *Leaderboard) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	players, err := l.profiles.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	profiles := make([]domain.PlayerProfile, 0, len(players))
	for _, id := range players {
		p, found, err := l.profiles.GetProfile(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get profile %s: %w", id, err)
		}
		if found && p.TotalXP > 0 {
			profiles = append(profiles, p)
		}
	}
	sort.SliceStable(profiles, func(i, k int) bool {
		return profiles[i].TotalXP > profiles[k].TotalXP
	})
	if len(profiles) > domain.LeaderboardSize {
		profiles = profiles[:domain.LeaderboardSize]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    p.PlayerID,
			Nickname:    p.Nickname,
			TotalXP:     p.TotalXP,
			GamesPlayed: p.GamesPlayed,
			Wins:        p.Wins,
			BestScore:   p.BestScore,
			BestStreak:  p.BestStreak,
		})
	}
	return entries, nil
}

func (l *Leaderboard) ensureProfile(ctx context.Context, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.ensureLocked(ctx, playerID)
	return err
}

// ensureLocked lazily creates a blank profile and registers the player.
func (l *Leaderboard) ensureLocked(ctx context.Context, playerID string) (domain.PlayerProfile, error) {
	profile, found, err := l.profiles.GetProfile(ctx, playerID)
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if found {
		return profile, nil
	}

	if _, err := l.profiles.RegisterPlayer(ctx, playerID); err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("register player: %w", err)
	}
	profile = domain.PlayerProfile{PlayerID: playerID, Registered: true}
	if err := l.profiles.SaveProfile(ctx, profile); err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
