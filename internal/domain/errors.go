package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID has never been allocated.
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidState indicates the room is in the wrong phase for the operation.
	ErrInvalidState = errors.New("invalid room state")
	// ErrUnauthorized is returned when a non-host calls a host-only operation.
	ErrUnauthorized = errors.New("only the host can do that")
	// ErrRoomFull is returned when a room already holds MaxPlayers players.
	ErrRoomFull = errors.New("room is full")
	// ErrDuplicateJoin is returned when a player joins a room twice.
	ErrDuplicateJoin = errors.New("player already in room")
	// ErrNotAParticipant is returned when a player acts in a room they never joined.
	ErrNotAParticipant = errors.New("player is not in this room")
	// ErrInvalidAnswer is returned for answers other than TRUE or TWIST.
	ErrInvalidAnswer = errors.New("answer must be TRUE or TWIST")
	// ErrExplanationTooShort is returned when the trimmed explanation is under MinExplanationLength.
	ErrExplanationTooShort = errors.New("explanation too short")
	// ErrAlreadySubmitted is returned on a second submission for the same round.
	ErrAlreadySubmitted = errors.New("already submitted this round")
	// ErrInsufficientPlayers is returned when a game is started with fewer than MinPlayers.
	ErrInsufficientPlayers = errors.New("not enough players")
	// ErrContentNotReady indicates the statement bank for the week is empty.
	ErrContentNotReady = errors.New("statement bank not ready")
	// ErrOracleFailure covers timeouts, transport errors and malformed judgments.
	ErrOracleFailure = errors.New("judgment oracle failure")
	// ErrStatementNotFound indicates a (week, index) outside the bank.
	ErrStatementNotFound = errors.New("statement not found")
	// ErrResultAlreadyRecorded is returned when a game result was already applied to a profile.
	ErrResultAlreadyRecorded = errors.New("game result already recorded for player")
	// ErrInvalidResult indicates an externally reported game result with negative values.
	ErrInvalidResult = errors.New("invalid game result")
	// ErrPlayerNotFound indicates a blank player identity.
	ErrPlayerNotFound = errors.New("player not found")
)
