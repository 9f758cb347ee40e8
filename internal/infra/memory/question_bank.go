package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"truth-or-twist/internal/domain"
)

// StatementLoader fetches a week's statements from a backing store (e.g., Postgres).
type StatementLoader interface {
	LoadWeek(ctx context.Context, week int) ([]domain.Statement, error)
}

// QuestionBank caches weekly statement sets with TTL to avoid repeated DB hits.
// Empty weeks are not cached, so content published later is picked up.
type QuestionBank struct {
	loader StatementLoader
	week   func() int
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[int]cachedWeek
}

type cachedWeek struct {
	statements []domain.Statement
	expiresAt  time.Time
}

func NewQuestionBank(loader StatementLoader, week func() int, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		week:   week,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[int]cachedWeek),
	}
}

// FixedWeek pins the bank to one week number.
func FixedWeek(week int) func() int {
	return func() int { return week }
}

func (b *QuestionBank) CurrentWeek(_ context.Context) (int, error) {
	return b.week(), nil
}

func (b *QuestionBank) StatementCount(ctx context.Context, week int) (int, error) {
	statements, err := b.load(ctx, week)
	if err != nil {
		return 0, err
	}
	return len(statements), nil
}

func (b *QuestionBank) GetStatement(ctx context.Context, week, index int) (domain.Statement, error) {
	statements, err := b.load(ctx, week)
	if err != nil {
		return domain.Statement{}, err
	}
	if index < 0 || index >= len(statements) {
		return domain.Statement{}, fmt.Errorf("%w: week %d index %d", domain.ErrStatementNotFound, week, index)
	}
	return statements[index], nil
}

func (b *QuestionBank) load(ctx context.Context, week int) ([]domain.Statement, error) {
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[week]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.statements, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(strconv.Itoa(week), func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[week]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.statements, nil
		}
		b.mu.RUnlock()

		statements, err := b.loader.LoadWeek(ctx, week)
		if err != nil {
			return nil, err
		}

		if len(statements) > 0 {
			b.mu.Lock()
			b.cache[week] = cachedWeek{
				statements: statements,
				expiresAt:  now.Add(ttlWithJitter(b.ttl)),
			}
			b.mu.Unlock()
		}
		return statements, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Statement), nil
}

// StaticStatementLoader serves the same statement set for every week (useful for tests/demos).
type StaticStatementLoader struct {
	statements []domain.Statement
}

func NewStaticStatementLoader(statements []domain.Statement) *StaticStatementLoader {
	return &StaticStatementLoader{statements: statements}
}

func (l *StaticStatementLoader) LoadWeek(_ context.Context, week int) ([]domain.Statement, error) {
	out := make([]domain.Statement, len(l.statements))
	for i, s := range l.statements {
		s.Week = week
		s.Index = i
		out[i] = s
	}
	return out, nil
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func ttlWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rand.Int63n(jitterMax+1))
}
