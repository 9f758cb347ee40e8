package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"truth-or-twist/internal/app"
	"truth-or-twist/internal/domain"
	"truth-or-twist/internal/infra/memory"
)

// Correct answers by round: TRUE, TWIST, TRUE, TWIST, TRUE.
func testStatements() []domain.Statement {
	return []domain.Statement{
		{Text: "Octopuses have three hearts.", Answer: domain.AnswerTrue, Explanation: "Two hearts for the gills, one for the body.", Difficulty: "easy"},
		{Text: "A day on Venus is shorter than its year.", Answer: domain.AnswerTwist, Explanation: "A Venus day is longer than its year.", Difficulty: "easy"},
		{Text: "Bananas are berries.", Answer: domain.AnswerTrue, Explanation: "Botanically bananas are berries.", Difficulty: "medium"},
		{Text: "Everest is tallest from its base.", Answer: domain.AnswerTwist, Explanation: "Mauna Kea is taller base to peak.", Difficulty: "medium"},
		{Text: "Lightning strikes 100 times a second.", Answer: domain.AnswerTrue, Explanation: "About 8 million strikes per day.", Difficulty: "hard"},
	}
}

func correctFor(round int) domain.Answer {
	if round%2 == 0 {
		return domain.AnswerTwist
	}
	return domain.AnswerTrue
}

func wrongFor(round int) domain.Answer {
	if correctFor(round) == domain.AnswerTrue {
		return domain.AnswerTwist
	}
	return domain.AnswerTrue
}

// stubJudge replays scripted judgments in call order. When gate is set, each
// call blocks until it is closed.
type stubJudge struct {
	mu      sync.Mutex
	calls   int
	replies []judgeReply
	gate    chan struct{}
	entered chan struct{}
}

type judgeReply struct {
	judgment domain.Judgment
	err      error
}

func (j *stubJudge) Judge(ctx context.Context, req domain.JudgeRequest) (domain.Judgment, error) {
	j.mu.Lock()
	j.calls++
	var reply judgeReply
	if len(j.replies) > 0 {
		reply = j.replies[0]
		j.replies = j.replies[1:]
	} else {
		reply = judgeReply{judgment: uniform(req, 50, req.Players[0].PlayerID)}
	}
	gate, entered := j.gate, j.entered
	j.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	return reply.judgment, reply.err
}

func (j *stubJudge) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func (j *stubJudge) push(judgment domain.Judgment) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.replies = append(j.replies, judgeReply{judgment: judgment})
}

func (j *stubJudge) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.replies = append(j.replies, judgeReply{err: err})
}

func uniform(req domain.JudgeRequest, score int, winner string) domain.Judgment {
	j := domain.Judgment{Scores: map[string]domain.ExplanationScore{}, WinnerID: winner}
	for _, p := range req.Players {
		j.Scores[p.PlayerID] = domain.ExplanationScore{Score: score, Feedback: "ok"}
	}
	return j
}

func judgment(winner string, scores map[string]int) domain.Judgment {
	j := domain.Judgment{Scores: map[string]domain.ExplanationScore{}, WinnerID: winner}
	for p, s := range scores {
		j.Scores[p] = domain.ExplanationScore{Score: s, Feedback: "feedback for " + p}
	}
	return j
}

type recordingEvents struct {
	mu       sync.Mutex
	rounds   []domain.RoundReport
	finished []domain.Room
	err      error
}

func (e *recordingEvents) PublishRoundScored(_ context.Context, report domain.RoundReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rounds = append(e.rounds, report)
	return e.err
}

func (e *recordingEvents) PublishGameFinished(_ context.Context, room domain.Room) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = append(e.finished, room)
	return e.err
}

type fixture struct {
	service  *app.GameService
	board    *app.Leaderboard
	judge    *stubJudge
	profiles *memory.ProfileStore
}

func newFixture(t *testing.T, mode app.FinalizationMode, opts ...app.Option) *fixture {
	t.Helper()
	judge := &stubJudge{}
	profiles := memory.NewProfileStore()
	board := app.NewLeaderboard(profiles, mode, nil)
	bank := memory.NewQuestionBank(memory.NewStaticStatementLoader(testStatements()), memory.FixedWeek(1), time.Minute)
	service := app.NewGameService(memory.NewRoomStore(), memory.NewSubmissionStore(), bank, judge, board, opts...)
	return &fixture{service: service, board: board, judge: judge, profiles: profiles}
}

// startedRoom creates a room hosted by players[0], joins the rest and starts it.
func (f *fixture) startedRoom(t *testing.T, players ...string) string {
	t.Helper()
	ctx := context.Background()
	roomID, err := f.service.CreateRoom(ctx, players[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for _, p := range players[1:] {
		if err := f.service.JoinRoom(ctx, roomID, p); err != nil {
			t.Fatalf("join %s: %v", p, err)
		}
	}
	if _, err := f.service.StartGame(ctx, roomID, players[0]); err != nil {
		t.Fatalf("start: %v", err)
	}
	return roomID
}

func (f *fixture) submit(t *testing.T, roomID, player string, answer domain.Answer, ts int64) {
	t.Helper()
	if err := f.service.SubmitAnswer(context.Background(), roomID, player, answer, "an explanation of my reasoning", ts); err != nil {
		t.Fatalf("submit %s: %v", player, err)
	}
}
