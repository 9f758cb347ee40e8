package app

import (
	"context"
	"time"

	"truth-or-twist/internal/domain"
)

// RoomRepository abstracts how room records are stored (in-memory, Redis, etc).
type RoomRepository interface {
	// NextRoomNumber returns a fresh, strictly increasing room number.
	NextRoomNumber(ctx context.Context) (int64, error)
	// GetRoom returns domain.ErrRoomNotFound for unknown IDs.
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	SaveRoom(ctx context.Context, room domain.Room) error
}

// SubmissionRepository stores write-once submission cells.
type SubmissionRepository interface {
	// PutSubmission returns domain.ErrAlreadySubmitted if the key is taken.
	PutSubmission(ctx context.Context, sub domain.Submission) error
	// ListSubmissions returns the round tally in no particular order.
	ListSubmissions(ctx context.Context, key domain.RoundKey) ([]domain.Submission, error)
}

// ProfileRepository stores cross-room player statistics.
type ProfileRepository interface {
	// GetProfile reports found=false for players that never interacted.
	GetProfile(ctx context.Context, playerID string) (domain.PlayerProfile, bool, error)
	SaveProfile(ctx context.Context, profile domain.PlayerProfile) error
	// RegisterPlayer adds the player to the known-player set, returning true if new.
	RegisterPlayer(ctx context.Context, playerID string) (bool, error)
	// ListPlayers returns known players in registration order.
	ListPlayers(ctx context.Context) ([]string, error)
	// ClaimResult atomically marks key as applied, reporting false if it already was.
	ClaimResult(ctx context.Context, key domain.ResultKey) (bool, error)
	// ReleaseResult drops a claim whose profile write did not happen.
	ReleaseResult(ctx context.Context, key domain.ResultKey) error
}

// QuestionBank is the read-only statement source.
type QuestionBank interface {
	CurrentWeek(ctx context.Context) (int, error)
	StatementCount(ctx context.Context, week int) (int, error)
	// GetStatement returns domain.ErrStatementNotFound outside the bank.
	GetStatement(ctx context.Context, week, index int) (domain.Statement, error)
}

// Judge grades a round's explanations. It may be slow and may fail.
type Judge interface {
	Judge(ctx context.Context, req domain.JudgeRequest) (domain.Judgment, error)
}

// EventPublisher receives committed outcomes for downstream consumers.
type EventPublisher interface {
	PublishRoundScored(ctx context.Context, report domain.RoundReport) error
	PublishGameFinished(ctx context.Context, room domain.Room) error
}

// Observer receives metric signals from the service.
type Observer interface {
	RoomCreated()
	SubmissionRecorded()
	OracleCall(elapsed time.Duration, err error)
	RoundScored(gameOver bool)
}

type noopEvents struct{}

func (noopEvents) PublishRoundScored(context.Context, domain.RoundReport) error { return nil }
func (noopEvents) PublishGameFinished(context.Context, domain.Room) error { return nil }

type noopObserver struct{}

func (noopObserver) RoomCreated() {}
func (noopObserver) SubmissionRecorded() {}
func (noopObserver) OracleCall(time.Duration, error) {}
func (noopObserver) RoundScored(bool) {}
