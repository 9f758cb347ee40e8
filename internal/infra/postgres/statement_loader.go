package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"truth-or-twist/internal/domain"
)

// StatementLoader loads a week's statements from Postgres.
type StatementLoader struct {
	pool *pgxpool.Pool
}

func NewStatementLoader(pool *pgxpool.Pool) *StatementLoader {
	return &StatementLoader{pool: pool}
}

// LoadWeek returns the week's statements ordered by idx. Index is renumbered
// by position so the bank always exposes 0..n-1.
func (l *StatementLoader) LoadWeek(ctx context.Context, week int) ([]domain.Statement, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT text, answer, explanation, difficulty FROM statements WHERE week=$1 ORDER BY idx`, week)
	if err != nil {
		return nil, fmt.Errorf("load week %d: %w", week, err)
	}
	defer rows.Close()

	var statements []domain.Statement
	for rows.Next() {
		var (
			s      domain.Statement
			answer string
		)
		if err := rows.Scan(&s.Text, &answer, &s.Explanation, &s.Difficulty); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		s.Week = week
		s.Index = len(statements)
		s.Answer = domain.Answer(answer)
		statements = append(statements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load week %d: %w", week, err)
	}
	return statements, nil
}

// SeedWeek replaces the week's statements in a single transaction.
func (l *StatementLoader) SeedWeek(ctx context.Context, week int, statements []domain.Statement) error {
	for i, s := range statements {
		if !s.Answer.Valid() {
			return fmt.Errorf("%w: statement %d has answer %q", domain.ErrInvalidAnswer, i, s.Answer)
		}
	}

	return l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM statements WHERE week=$1`, week); err != nil {
			return fmt.Errorf("clear week %d: %w", week, err)
		}
		batch := &pgx.Batch{}
		for i, s := range statements {
			difficulty := s.Difficulty
			if difficulty == "" {
				difficulty = "medium"
			}
			batch.Queue(
				`INSERT INTO statements (week, idx, text, answer, explanation, difficulty) VALUES ($1, $2, $3, $4, $5, $6)`,
				week, i, s.Text, string(s.Answer), s.Explanation, difficulty,
			)
		}
		results := tx.SendBatch(ctx, batch)
		for range statements {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("insert statement: %w", err)
			}
		}
		return results.Close()
	})
}
