package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"truth-or-twist/internal/domain"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{domain.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
	{domain.ErrStatementNotFound, http.StatusNotFound, "statement_not_found"},
	{domain.ErrPlayerNotFound, http.StatusBadRequest, "player_required"},
	{domain.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{domain.ErrRoomFull, http.StatusConflict, "room_full"},
	{domain.ErrDuplicateJoin, http.StatusConflict, "duplicate_join"},
	{domain.ErrAlreadySubmitted, http.StatusConflict, "already_submitted"},
	{domain.ErrInsufficientPlayers, http.StatusConflict, "insufficient_players"},
	{domain.ErrResultAlreadyRecorded, http.StatusConflict, "result_already_recorded"},
	{domain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{domain.ErrNotAParticipant, http.StatusForbidden, "not_a_participant"},
	{domain.ErrInvalidAnswer, http.StatusBadRequest, "invalid_answer"},
	{domain.ErrExplanationTooShort, http.StatusBadRequest, "explanation_too_short"},
	{domain.ErrInvalidResult, http.StatusBadRequest, "invalid_result"},
	{domain.ErrContentNotReady, http.StatusServiceUnavailable, "content_not_ready"},
	{domain.ErrOracleFailure, http.StatusBadGateway, "oracle_failure"},
}

// classify maps a service error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorPayload{Code: code, Message: msg})
}
