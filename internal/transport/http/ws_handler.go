package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"truth-or-twist/internal/app"
	"truth-or-twist/internal/domain"
)

// WSHandler serves a request/response command channel. Every inbound command
// gets exactly one reply on the same connection; nothing is pushed unprompted.
type WSHandler struct {
	service  *app.GameService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Payload   T      `json:"payload"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type submitPayload struct {
	RoomID      string `json:"roomId"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	Timestamp   int64  `json:"timestamp"`
}

type profilePayload struct {
	PlayerID string `json:"playerId"`
}

type connectedPayload struct {
	PlayerID string `json:"playerId"`
}

var errUnsupportedCommand = errors.New("unsupported message type")

// ServeWS upgrades the request and runs commands as the player named by the
// playerId query parameter. An optional name registers the nickname.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	nickname := r.URL.Query().Get("name")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.WithFields(logrus.Fields{"player": playerID, "request_id": requestIDFrom(r.Context())})
	ctx := r.Context()

	if nickname != "" {
		if _, err := h.service.Leaderboard().RegisterPlayer(ctx, playerID, nickname); err != nil {
			_ = conn.WriteJSON(errorReply("", err))
			return
		}
	}
	if err := conn.WriteJSON(outboundMessage[connectedPayload]{Type: "connected", Payload: connectedPayload{PlayerID: playerID}}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("ws read ended")
			}
			return
		}

		result, err := h.dispatch(ctx, playerID, inbound)
		var reply any
		if err != nil {
			reply = errorReply(inbound.RequestID, err)
		} else {
			reply = outboundMessage[any]{Type: inbound.Type + "_result", RequestID: inbound.RequestID, Payload: result}
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("ws write error")
			return
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, playerID string, msg inboundMessage) (any, error) {
	switch msg.Type {
	case "create_room":
		roomID, err := h.service.CreateRoom(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return roomCreated{RoomID: roomID}, nil

	case "join_room":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		if err := h.service.JoinRoom(ctx, p.RoomID, playerID); err != nil {
			return nil, err
		}
		return h.service.GetRoomState(ctx, p.RoomID)

	case "start_game":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		text, err := h.service.StartGame(ctx, p.RoomID, playerID)
		if err != nil {
			return nil, err
		}
		return gameStarted{RoomID: p.RoomID, Round: 1, Statement: text}, nil

	case "submit_answer":
		var p submitPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		if p.Timestamp == 0 {
			p.Timestamp = time.Now().UnixNano()
		}
		if err := h.service.SubmitAnswer(ctx, p.RoomID, playerID, domain.Answer(p.Answer), p.Explanation, p.Timestamp); err != nil {
			return nil, err
		}
		return map[string]string{"status": "submitted"}, nil

	case "score_round":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return h.service.ScoreRound(ctx, p.RoomID)

	case "room_state":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return h.service.GetRoomState(ctx, p.RoomID)

	case "leaderboard":
		entries, err := h.service.Leaderboard().GetLeaderboard(ctx)
		if err != nil {
			return nil, err
		}
		return leaderboardResponse{Entries: entries}, nil

	case "profile":
		var p profilePayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		if p.PlayerID == "" {
			p.PlayerID = playerID
		}
		return h.service.Leaderboard().GetPlayerProfile(ctx, p.PlayerID)

	case "weekly_topic":
		return h.service.WeeklyTopic(ctx)

	case "weekly_questions":
		return h.service.WeeklyQuestions(ctx)

	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedCommand, msg.Type)
	}
}

func unmarshalPayload(msg inboundMessage, v any) error {
	if len(msg.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	return nil
}

func errorReply(requestID string, err error) outboundMessage[errorPayload] {
	_, code := classify(err)
	if errors.Is(err, errUnsupportedCommand) {
		code = "unsupported"
	}
	return outboundMessage[errorPayload]{
		Type:      "error",
		RequestID: requestID,
		Payload:   errorPayload{Code: code, Message: err.Error()},
	}
}
