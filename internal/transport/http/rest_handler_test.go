package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"truth-or-twist/internal/app"
	"truth-or-twist/internal/domain"
	"truth-or-twist/internal/infra/memory"
	"truth-or-twist/internal/metrics"
	"truth-or-twist/internal/oracle"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithMode(t, app.FinalizeInline)
}

func newTestServerWithMode(t *testing.T, mode app.FinalizationMode) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	bank := memory.NewQuestionBank(memory.NewStaticStatementLoader(testStatements()), memory.FixedWeek(1), time.Minute)
	board := app.NewLeaderboard(memory.NewProfileStore(), mode, log)
	m := metrics.New()
	service := app.NewGameService(memory.NewRoomStore(), memory.NewSubmissionStore(), bank, oracle.Heuristic{}, board,
		app.WithLogger(log), app.WithObserver(m))

	server := httptest.NewServer(NewServer(service, m, log).Handler())
	t.Cleanup(server.Close)
	return server
}

func testStatements() []domain.Statement {
	return []domain.Statement{
		{Text: "Octopuses have three hearts.", Answer: domain.AnswerTrue, Explanation: "Two hearts pump to the gills and one to the body.", Difficulty: "easy"},
		{Text: "A day on Venus is shorter than its year.", Answer: domain.AnswerTwist, Explanation: "A Venus day is longer than its year.", Difficulty: "easy"},
		{Text: "Bananas are berries.", Answer: domain.AnswerTrue, Explanation: "Botanically bananas are berries.", Difficulty: "medium"},
		{Text: "Everest is tallest from its base.", Answer: domain.AnswerTwist, Explanation: "Mauna Kea is taller base to peak.", Difficulty: "medium"},
		{Text: "Lightning strikes 100 times a second.", Answer: domain.AnswerTrue, Explanation: "Earth sees about 8 million strikes per day.", Difficulty: "hard"},
	}
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestRESTGameFlow(t *testing.T) {
	server := newTestServer(t)

	var created roomCreated
	resp := doJSON(t, server, http.MethodPost, "/rooms", map[string]string{"hostId": "A"}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ROOM-0001", created.RoomID)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	var snap domain.RoomSnapshot
	resp = doJSON(t, server, http.MethodPost, "/rooms/ROOM-0001/players", map[string]string{"playerId": "B"}, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "B"}, snap.Players)

	var started gameStarted
	resp = doJSON(t, server, http.MethodPost, "/rooms/ROOM-0001/start", map[string]string{"playerId": "A"}, &started)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, started.Statement)

	resp = doJSON(t, server, http.MethodPost, "/rooms/ROOM-0001/submissions", submitRequest{
		PlayerID: "A", Answer: "TRUE", Explanation: "I remember reading about this fact.", Timestamp: 1,
	}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var outcome domain.RoundOutcome
	resp = doJSON(t, server, http.MethodPost, "/rooms/ROOM-0001/score", nil, &outcome)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, outcome.Waiting)
	assert.Equal(t, 1, outcome.Submitted)
	assert.Equal(t, 2, outcome.Total)

	resp = doJSON(t, server, http.MethodPost, "/rooms/ROOM-0001/submissions", submitRequest{
		PlayerID: "B", Answer: "TWIST", Explanation: "That sounds made up to me.", Timestamp: 2,
	}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	outcome = domain.RoundOutcome{}
	resp = doJSON(t, server, http.MethodPost, "/rooms/ROOM-0001/score", nil, &outcome)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.False(t, outcome.Waiting)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 1, outcome.Report.Round)
	assert.Len(t, outcome.Report.Results, 2)

	snap = domain.RoomSnapshot{}
	resp = doJSON(t, server, http.MethodGet, "/rooms/ROOM-0001", nil, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, snap.CurrentRound)
	assert.Equal(t, domain.StatusActive, snap.Status)
	assert.Equal(t, 2, snap.WaitingFor)
}

func TestRESTErrorMapping(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/rooms", map[string]string{"hostId": "A"}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown room", http.MethodPost, "/rooms/ROOM-9999/players", map[string]string{"playerId": "B"}, http.StatusNotFound, "room_not_found"},
		{"blank host", http.MethodPost, "/rooms", map[string]string{"hostId": " "}, http.StatusBadRequest, "player_required"},
		{"too few players", http.MethodPost, "/rooms/ROOM-0001/start", map[string]string{"playerId": "A"}, http.StatusConflict, "insufficient_players"},
		{"non-host start", http.MethodPost, "/rooms/ROOM-0001/start", map[string]string{"playerId": "Z"}, http.StatusForbidden, "unauthorized"},
		{"submit while waiting", http.MethodPost, "/rooms/ROOM-0001/submissions", submitRequest{PlayerID: "A", Answer: "TRUE", Explanation: "long enough explanation"}, http.StatusConflict, "invalid_state"},
		{"duplicate join", http.MethodPost, "/rooms/ROOM-0001/players", map[string]string{"playerId": "A"}, http.StatusConflict, "duplicate_join"},
		{"negative result", http.MethodPost, "/players/A/results", resultRequest{GameID: "g1", XPEarned: -1}, http.StatusBadRequest, "invalid_result"},
		{"result in inline mode", http.MethodPost, "/players/A/results", resultRequest{GameID: "g1", XPEarned: 10}, http.StatusConflict, "invalid_state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload errorPayload
			resp := doJSON(t, server, tt.method, tt.path, tt.body, &payload)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, payload.Code)
		})
	}
}

func TestRESTProfilesAndLeaderboard(t *testing.T) {
	server := newTestServerWithMode(t, app.FinalizeExternal)

	var profile domain.PlayerProfile
	resp := doJSON(t, server, http.MethodGet, "/players/ghost", nil, &profile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, profile.Registered)

	resp = doJSON(t, server, http.MethodPut, "/players/A", nicknameRequest{Nickname: "  Alice  "}, &profile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice", profile.Nickname)
	assert.True(t, profile.Registered)

	resp = doJSON(t, server, http.MethodPost, "/players/A/results", resultRequest{GameID: "g1", XPEarned: 40, Won: true, GameScore: 40}, &profile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 40, profile.TotalXP)
	assert.Equal(t, 1, profile.WinStreak)

	var payload errorPayload
	resp = doJSON(t, server, http.MethodPost, "/players/A/results", resultRequest{GameID: "g1", XPEarned: 40, Won: true, GameScore: 40}, &payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "result_already_recorded", payload.Code)

	var board leaderboardResponse
	resp = doJSON(t, server, http.MethodGet, "/leaderboard", nil, &board)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Alice", board.Entries[0].Nickname)
	assert.Equal(t, 1, board.Entries[0].Rank)

	var topic domain.WeeklyTopic
	resp = doJSON(t, server, http.MethodGet, "/week", nil, &topic)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, topic.Week)
	assert.True(t, topic.StatementsReady)
	assert.Equal(t, 5, topic.TotalStatements)
}

func TestRESTWeeklyQuestions(t *testing.T) {
	server := newTestServer(t)

	var preview domain.WeeklyQuestions
	resp := doJSON(t, server, http.MethodGet, "/week/questions", nil, &preview)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, preview.Week)
	assert.Equal(t, 5, preview.Total)
	assert.Equal(t, map[string]int{"easy": 2, "medium": 2, "hard": 1}, preview.ByDifficulty)
	require.Len(t, preview.Questions, 5)
	assert.Equal(t, testStatements()[1].Text, preview.Questions[1].Text)
	assert.Equal(t, domain.AnswerTwist, preview.Questions[1].Answer)
	assert.Equal(t, 1, preview.Questions[1].Index)
}

func TestHealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "req-123")
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(requestIDHeader))

	doJSON(t, server, http.MethodPost, "/rooms", map[string]string{"hostId": "A"}, nil)

	resp, err = server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "twist_rooms_created_total 1")
}
