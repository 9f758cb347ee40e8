package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"truth-or-twist/internal/domain"
)

type profileRow struct {
	bun.BaseModel `bun:"table:player_profiles,alias:p"`

	PlayerID    string `bun:"player_id,pk"`
	Nickname    string `bun:"nickname,notnull"`
	TotalXP     int    `bun:"total_xp,notnull"`
	GamesPlayed int    `bun:"games_played,notnull"`
	Wins        int    `bun:"wins,notnull"`
	BestScore   int    `bun:"best_score,notnull"`
	WinStreak   int    `bun:"win_streak,notnull"`
	BestStreak  int    `bun:"best_streak,notnull"`
	Registered  bool   `bun:"registered,notnull"`
}

type gameResultRow struct {
	bun.BaseModel `bun:"table:game_results,alias:gr"`

	GameID   string `bun:"game_id,pk"`
	PlayerID string `bun:"player_id,pk"`
}

// ProfileStore persists player profiles and applied game results with bun.
// Registration order is the table's seq column.
type ProfileStore struct {
	db *bun.DB
}

func NewProfileStore(db *bun.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) GetProfile(ctx context.Context, playerID string) (domain.PlayerProfile, bool, error) {
	var row profileRow
	err := s.db.NewSelect().Model(&row).Where("p.player_id = ?", playerID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerProfile{}, false, nil
	}
	if err != nil {
		return domain.PlayerProfile{}, false, fmt.Errorf("select profile: %w", err)
	}
	return row.toDomain(), true, nil
}

func (s *ProfileStore) SaveProfile(ctx context.Context, profile domain.PlayerProfile) error {
	row := rowFromDomain(profile)
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (player_id) DO UPDATE").
		Set("nickname = EXCLUDED.nickname").
		Set("total_xp = EXCLUDED.total_xp").
		Set("games_played = EXCLUDED.games_played").
		Set("wins = EXCLUDED.wins").
		Set("best_score = EXCLUDED.best_score").
		Set("win_streak = EXCLUDED.win_streak").
		Set("best_streak = EXCLUDED.best_streak").
		Set("registered = EXCLUDED.registered").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) RegisterPlayer(ctx context.Context, playerID string) (bool, error) {
	row := profileRow{PlayerID: playerID, Registered: true}
	res, err := s.db.NewInsert().Model(&row).On("CONFLICT (player_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *ProfileStore) ListPlayers(ctx context.Context) ([]string, error) {
	var players []string
	err := s.db.NewSelect().
		Table("player_profiles").
		Column("player_id").
		OrderExpr("seq ASC").
		Scan(ctx, &players)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// ClaimResult relies on the (game_id, player_id) primary key: a conflicting
// insert affects no rows.
func (s *ProfileStore) ClaimResult(ctx context.Context, key domain.ResultKey) (bool, error) {
	row := gameResultRow{GameID: key.GameID, PlayerID: key.PlayerID}
	res, err := s.db.NewInsert().Model(&row).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}
	return n == 1, nil
}

func (s *ProfileStore) ReleaseResult(ctx context.Context, key domain.ResultKey) error {
	_, err := s.db.NewDelete().
		Model((*gameResultRow)(nil)).
		Where("game_id = ?", key.GameID).
		Where("player_id = ?", key.PlayerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

func (r profileRow) toDomain() domain.PlayerProfile {
	return domain.PlayerProfile{
		PlayerID:    r.PlayerID,
		Nickname:    r.Nickname,
		TotalXP:     r.TotalXP,
		GamesPlayed: r.GamesPlayed,
		Wins:        r.Wins,
		BestScore:   r.BestScore,
		WinStreak:   r.WinStreak,
		BestStreak:  r.BestStreak,
		Registered:  r.Registered,
	}
}

func rowFromDomain(p domain.PlayerProfile) profileRow {
	return profileRow{
		PlayerID:    p.PlayerID,
		Nickname:    p.Nickname,
		TotalXP:     p.TotalXP,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		BestScore:   p.BestScore,
		WinStreak:   p.WinStreak,
		BestStreak:  p.BestStreak,
		Registered:  p.Registered,
	}
}
