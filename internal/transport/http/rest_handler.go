package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"truth-or-twist/internal/domain"
)

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type submitRequest struct {
	PlayerID    string `json:"playerId"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	Timestamp   int64  `json:"timestamp"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

type resultRequest struct {
	GameID    string `json:"gameId"`
	XPEarned  int    `json:"xpEarned"`
	Won       bool   `json:"won"`
	GameScore int    `json:"gameScore"`
}

type roomCreated struct {
	RoomID string `json:"roomId"`
}

type gameStarted struct {
	RoomID    string `json:"roomId"`
	Round     int    `json:"round"`
	Statement string `json:"statement"`
}

type leaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostID string `json:"hostId"`
	}
	if !decode(w, r, &req) {
		return
	}
	roomID, err := s.service.CreateRoom(r.Context(), req.HostID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, roomCreated{RoomID: roomID})
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decode(w, r, &req) {
		return
	}
	roomID := mux.Vars(r)["roomId"]
	if err := s.service.JoinRoom(r.Context(), roomID, req.PlayerID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.roomStateFor(w, r, roomID)
}

func (s *Server) startGame(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decode(w, r, &req) {
		return
	}
	roomID := mux.Vars(r)["roomId"]
	text, err := s.service.StartGame(r.Context(), roomID, req.PlayerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameStarted{RoomID: roomID, Round: 1, Statement: text})
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().UnixNano()
	}
	roomID := mux.Vars(r)["roomId"]
	err := s.service.SubmitAnswer(r.Context(), roomID, req.PlayerID, domain.Answer(req.Answer), req.Explanation, req.Timestamp)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

func (s *Server) scoreRound(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.service.ScoreRound(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) roomState(w http.ResponseWriter, r *http.Request) {
	s.roomStateFor(w, r, mux.Vars(r)["roomId"])
}

func (s *Server) roomStateFor(w http.ResponseWriter, r *http.Request, roomID string) {
	snap, err := s.service.GetRoomState(r.Context(), roomID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Leaderboard().GetLeaderboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries})
}

func (s *Server) playerProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.service.Leaderboard().GetPlayerProfile(r.Context(), mux.Vars(r)["playerId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req nicknameRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := s.service.Leaderboard().RegisterPlayer(r.Context(), mux.Vars(r)["playerId"], req.Nickname)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) reportResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := s.service.Leaderboard().UpdateProfile(r.Context(), req.GameID, mux.Vars(r)["playerId"], domain.GameResult{
		XPEarned:  req.XPEarned,
		Won:       req.Won,
		GameScore: req.GameScore,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) weeklyTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := s.service.WeeklyTopic(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) weeklyQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.service.WeeklyQuestions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{
			"request_id": requestIDFrom(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	writeError(w, err)
}

// decode reads an optional JSON body; an empty body leaves v zeroed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "bad_request", Message: "invalid json body"})
		return false
	}
	return true
}
