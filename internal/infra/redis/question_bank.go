package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"truth-or-twist/internal/domain"
)

// StatementLoader fetches a week's statements from a backing store (e.g., Postgres).
type StatementLoader interface {
	LoadWeek(ctx context.Context, week int) ([]domain.Statement, error)
}

// QuestionBank caches weekly statements in Redis (hash per week) and falls back to a loader on cache miss.
// Statements are stored as: HSET twist:bank:{week} {index} {statement JSON}
type QuestionBank struct {
	client *redis.Client
	loader StatementLoader
	week   func() int
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionBank(client *redis.Client, loader StatementLoader, week func() int, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		week:   week,
		ttl:    ttl,
	}
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
	key := bankKey(week)

	cached, err := b.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return statementsFromCache(cached)
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := b.client.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			return statementsFromCache(cached)
		}

		statements, err := b.loader.LoadWeek(ctx, week)
		if err != nil {
			return nil, err
		}
		if len(statements) == 0 {
			return statements, nil
		}

		pipe := b.client.Pipeline()
		for i, s := range statements {
			raw, err := json.Marshal(s)
			if err != nil {
				return nil, fmt.Errorf("marshal statement: %w", err)
			}
			pipe.HSet(ctx, key, strconv.Itoa(i), raw)
		}
		if ttl := b.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return statements, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Statement), nil
}

func bankKey(week int) string {
	return keyPrefix + "bank:" + strconv.Itoa(week)
}

// statementsFromCache rebuilds the slice in index order.
func statementsFromCache(fields map[string]string) ([]domain.Statement, error) {
	statements := make([]domain.Statement, 0, len(fields))
	for _, raw := range fields {
		var s domain.Statement
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("unmarshal cached statement: %w", err)
		}
		statements = append(statements, s)
	}
	sort.Slice(statements, func(i, k int) bool {
		return statements[i].Index < statements[k].Index
	})
	return statements, nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
