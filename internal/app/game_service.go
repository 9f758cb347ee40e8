package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"truth-or-twist/internal/domain"
)

// GameService contains the room, submission and scoring use cases.
type GameService struct {
	rooms         RoomRepository
	submissions   SubmissionRepository
	bank          QuestionBank
	judge         Judge
	board         *Leaderboard
	events        EventPublisher
	observer      Observer
	log           logrus.FieldLogger
	now           func() time.Time
	newGameID     func() string
	oracleTimeout time.Duration
	locks         *roomLocks
}

// Option customizes a GameService.
type Option func(*GameService)

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *GameService) { s.log = log }
}

// WithEvents publishes committed rounds and finished games.
func WithEvents(events EventPublisher) Option {
	return func(s *GameService) { s.events = events }
}

// WithObserver wires metric hooks.
func WithObserver(observer Observer) Option {
	return func(s *GameService) { s.observer = observer }
}

// WithClock is used by tests for deterministic room timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithOracleTimeout bounds a single oracle call. Zero leaves it to the Judge.
func WithOracleTimeout(d time.Duration) Option {
	return func(s *GameService) { s.oracleTimeout = d }
}

func NewGameService(rooms RoomRepository, submissions SubmissionRepository, bank QuestionBank, judge Judge, board *Leaderboard, opts ...Option) *GameService {
	s := &GameService{
		rooms:       rooms,
		submissions: submissions,
		bank:        bank,
		judge:       judge,
		board:       board,
		events:      noopEvents{},
		observer:    noopObserver{},
		log:         discardLogger(),
		now:         time.Now,
		newGameID:   uuid.NewString,
		locks:       newRoomLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Leaderboard exposes the profile component the service finalizes into.
func (s *GameService) Leaderboard() *Leaderboard {
	return s.board
}

// CreateRoom allocates a room hosted by hostID and pins it to the current week.
func (s *GameService) CreateRoom(ctx context.Context, hostID string) (string, error) {
	if strings.TrimSpace(hostID) == "" {
		return "", domain.ErrPlayerNotFound
	}
	week, err := s.bank.CurrentWeek(ctx)
	if err != nil {
		return "", fmt.Errorf("current week: %w", err)
	}
	total, err := s.bank.StatementCount(ctx, week)
	if err != nil {
		return "", fmt.Errorf("statement count: %w", err)
	}
	if total == 0 {
		return "", fmt.Errorf("%w: week %d", domain.ErrContentNotReady, week)
	}

	if err := s.board.ensureProfile(ctx, hostID); err != nil {
		return "", err
	}

	number, err := s.rooms.NextRoomNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("allocate room: %w", err)
	}
	room := domain.Room{
		ID:               domain.RoomID(number),
		GameID:           s.newGameID(),
		Number:           number,
		Host:             hostID,
		Players:          []string{hostID},
		Status:           domain.StatusWaiting,
		Week:             week,
		StatementIndices: pickStatementIndices(number, total),
		Scores:           map[string]int{hostID: 0},
		CreatedAt:        s.now(),
	}
	if err := s.rooms.SaveRoom(ctx, room); err != nil {
		return "", fmt.Errorf("save room: %w", err)
	}

	s.observer.RoomCreated()
	s.log.WithFields(logrus.Fields{"room": room.ID, "game": room.GameID, "host": hostID, "week": week}).Info("room created")
	return room.ID, nil
}

// pickStatementIndices spreads rooms over the bank. Indices wrap, so every
// entry is valid for any non-empty bank.
func pickStatementIndices(roomNumber int64, total int) []int {
	span := total - (domain.TotalRounds - 1)
	if span < 1 {
		span = 1
	}
	start := int(roomNumber % int64(span))
	indices := make([]int, domain.TotalRounds)
	for i := range indices {
		indices[i] = (start + i) % total
	}
	return indices
}

// JoinRoom appends playerID to a waiting room.
func (s *GameService) JoinRoom(ctx context.Context, roomID, playerID string) error {
	if strings.TrimSpace(playerID) == "" {
		return domain.ErrPlayerNotFound
	}
	release := s.locks.lock(roomID)
	defer release()

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status != domain.StatusWaiting {
		return fmt.Errorf("%w: room %s is %s", domain.ErrInvalidState, roomID, room.Status)
	}
	if len(room.Players) >= domain.MaxPlayers {
		return domain.ErrRoomFull
	}
	if room.HasPlayer(playerID) {
		return domain.ErrDuplicateJoin
	}

	if err := s.board.ensureProfile(ctx, playerID); err != nil {
		return err
	}
	room.Players = append(room.Players, playerID)
	room.Scores[playerID] = 0
	if err := s.rooms.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	s.log.WithFields(logrus.Fields{"room": roomID, "player": playerID}).Debug("player joined")
	return nil
}

// StartGame activates round 1 and returns the first statement text.
func (s *GameService) StartGame(ctx context.Context, roomID, callerID string) (string, error) {
	release := s.locks.lock(roomID)
	defer release()

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	if room.Host != callerID {
		return "", domain.ErrUnauthorized
	}
	if len(room.Players) < domain.MinPlayers {
		return "", domain.ErrInsufficientPlayers
	}
	if room.Status != domain.StatusWaiting {
		return "", fmt.Errorf("%w: room %s is %s", domain.ErrInvalidState, roomID, room.Status)
	}

	stmt, err := s.statementForRound(ctx, room, 1)
	if err != nil {
		return "", err
	}
	room.Status = domain.StatusActive
	room.Round = 1
	if err := s.rooms.SaveRoom(ctx, room); err != nil {
		return "", fmt.Errorf("save room: %w", err)
	}
	s.log.WithFields(logrus.Fields{"room": roomID, "players": len(room.Players)}).Info("game started")
	return stmt.Text, nil
}

// SubmitAnswer records playerID's write-once answer for the current round.
func (s *GameService) SubmitAnswer(ctx context.Context, roomID, playerID string, answer domain.Answer, explanation string, timestamp int64) error {
	release := s.locks.lock(roomID)
	defer release()

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status != domain.StatusActive {
		return fmt.Errorf("%w: room %s is %s", domain.ErrInvalidState, roomID, room.Status)
	}
	if !room.HasPlayer(playerID) {
		return domain.ErrNotAParticipant
	}
	if !answer.Valid() {
		return domain.ErrInvalidAnswer
	}
	if utf8.RuneCountInString(strings.TrimSpace(explanation)) < domain.MinExplanationLength {
		return domain.ErrExplanationTooShort
	}

	sub := domain.Submission{
		RoomID:      roomID,
		Round:       room.Round,
		PlayerID:    playerID,
		Answer:      answer,
		Explanation: explanation,
		Timestamp:   timestamp,
	}
	if err := s.submissions.PutSubmission(ctx, sub); err != nil {
		return err
	}
	s.observer.SubmissionRecorded()
	return nil
}

// GetRoomState returns a read-only snapshot of a room.
func (s *GameService) GetRoomState(ctx context.Context, roomID string) (domain.RoomSnapshot, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	snap := domain.RoomSnapshot{
		RoomID:       room.ID,
		GameID:       room.GameKey(),
		Host:         room.Host,
		Players:      append([]string(nil), room.Players...),
		PlayerCount:  len(room.Players),
		Status:       room.Status,
		CurrentRound: room.Round,
		TotalRounds:  domain.TotalRounds,
		Week:         room.Week,
		Scores:       copyScores(room.Scores),
	}

	switch room.Status {
	case domain.StatusActive:
		stmt, err := s.statementForRound(ctx, room, room.Round)
		if err != nil {
			return domain.RoomSnapshot{}, err
		}
		subs, err := s.submissions.ListSubmissions(ctx, domain.RoundKey{RoomID: room.ID, Round: room.Round})
		if err != nil {
			return domain.RoomSnapshot{}, fmt.Errorf("list submissions: %w", err)
		}
		submitted := len(orderByPlayers(room.Players, subs))
		snap.CurrentStatement = stmt.Text
		snap.Difficulty = stmt.Difficulty
		snap.SubmittedCount = submitted
		snap.WaitingFor = len(room.Players) - submitted
	case domain.StatusFinished:
		snap.FinalRanking = append([]domain.RankingEntry(nil), room.FinalRanking...)
	}
	return snap, nil
}

// WeeklyTopic describes the bank of the current week.
func (s *GameService) WeeklyTopic(ctx context.Context) (domain.WeeklyTopic, error) {
	week, err := s.bank.CurrentWeek(ctx)
	if err != nil {
		return domain.WeeklyTopic{}, fmt.Errorf("current week: %w", err)
	}
	total, err := s.bank.StatementCount(ctx, week)
	if err != nil {
		return domain.WeeklyTopic{}, fmt.Errorf("statement count: %w", err)
	}
	return domain.WeeklyTopic{
		Week:            week,
		Topic:           domain.TopicForWeek(week),
		StatementsReady: total > 0,
		TotalStatements: total,
	}, nil
}

// WeeklyQuestions lists the current week's statements in bank order.
// Difficulty counts always carry the easy, medium and hard buckets.
func (s *GameService) WeeklyQuestions(ctx context.Context) (domain.WeeklyQuestions, error) {
	week, err := s.bank.CurrentWeek(ctx)
	if err != nil {
		return domain.WeeklyQuestions{}, fmt.Errorf("current week: %w", err)
	}
	total, err := s.bank.StatementCount(ctx, week)
	if err != nil {
		return domain.WeeklyQuestions{}, fmt.Errorf("statement count: %w", err)
	}

	out := domain.WeeklyQuestions{
		Week:         week,
		Topic:        domain.TopicForWeek(week),
		ByDifficulty: map[string]int{"easy": 0, domain.DefaultDifficulty: 0, "hard": 0},
		Questions:    make([]domain.Statement, 0, total),
	}
	for i := 0; i < total; i++ {
		stmt, err := s.bank.GetStatement(ctx, week, i)
		if err != nil {
			return domain.WeeklyQuestions{}, fmt.Errorf("statement %d: %w", i, err)
		}
		if stmt.Difficulty == "" {
			stmt.Difficulty = domain.DefaultDifficulty
		}
		stmt.Week, stmt.Index = week, i
		out.ByDifficulty[stmt.Difficulty]++
		out.Questions = append(out.Questions, stmt)
	}
	out.Total = len(out.Questions)
	return out, nil
}

// statementForRound resolves the statement of a 1-based round against the room's pinned week.
func (s *GameService) statementForRound(ctx context.Context, room domain.Room, round int) (domain.Statement, error) {
	if round < 1 || round > len(room.StatementIndices) {
		return domain.Statement{}, fmt.Errorf("%w: round %d", domain.ErrStatementNotFound, round)
	}
	stmt, err := s.bank.GetStatement(ctx, room.Week, room.StatementIndices[round-1])
	if err != nil {
		return domain.Statement{}, fmt.Errorf("room %s round %d: %w", room.ID, round, err)
	}
	return stmt, nil
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
