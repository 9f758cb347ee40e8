package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"truth-or-twist/internal/domain"
)

func TestQuestionBankCaches(t *testing.T) {
	loader := &countingLoader{StatementLoader: NewStaticStatementLoader(sampleStatements())}
	bank := NewQuestionBank(loader, FixedWeek(3), time.Minute)

	count, err := bank.StatementCount(context.Background(), 3)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 statements, got %d", count)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	stmt, err := bank.GetStatement(context.Background(), 3, 4)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if stmt.Week != 3 || stmt.Index != 4 || stmt.Text != "s4" {
		t.Fatalf("unexpected statement %+v", stmt)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionBankOutOfRange(t *testing.T) {
	bank := NewQuestionBank(NewStaticStatementLoader(sampleStatements()), FixedWeek(1), time.Minute)

	_, err := bank.GetStatement(context.Background(), 1, 5)
	if !errors.Is(err, domain.ErrStatementNotFound) {
		t.Fatalf("expected statement not found, got %v", err)
	}
}

func TestQuestionBankDoesNotCacheEmptyWeek(t *testing.T) {
	loader := &countingLoader{StatementLoader: NewStaticStatementLoader(nil)}
	bank := NewQuestionBank(loader, FixedWeek(1), time.Minute)

	for i := 0; i < 2; i++ {
		count, err := bank.StatementCount(context.Background(), 1)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected empty bank, got %d", count)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected empty week reloaded, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	StatementLoader
	calls int
}

func (l *countingLoader) LoadWeek(ctx context.Context, week int) ([]domain.Statement, error) {
	l.calls++
	return l.StatementLoader.LoadWeek(ctx, week)
}

func sampleStatements() []domain.Statement {
	out := make([]domain.Statement, 5)
	for i := range out {
		out[i] = domain.Statement{
			Text:        "s" + string(rune('0'+i)),
			Answer:      domain.AnswerTrue,
			Explanation: "because",
			Difficulty:  "easy",
		}
	}
	return out
}
