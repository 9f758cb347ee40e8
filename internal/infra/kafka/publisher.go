package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"truth-or-twist/internal/domain"
)

const (
	EventRoundScored  = "round_scored"
	EventGameFinished = "game_finished"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Event is the envelope written to the topic. Messages are keyed by room so
// a room's events stay ordered within a partition.
type Event struct {
	Type       string          `json:"type"`
	RoomID     string          `json:"room_id"`
	Round      int             `json:"round,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type gameFinishedPayload struct {
	GameID       string                `json:"game_id"`
	Week         int                   `json:"week"`
	Players      []string              `json:"players"`
	Scores       map[string]int        `json:"scores"`
	FinalRanking []domain.RankingEntry `json:"final_ranking"`
}

// Publisher emits committed rounds and finished games.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisher(&kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		Async:        false,
	})
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

func (p *Publisher) PublishRoundScored(ctx context.Context, report domain.RoundReport) error {
	return p.publish(ctx, EventRoundScored, report.RoomID, report.Round, report)
}

func (p *Publisher) PublishGameFinished(ctx context.Context, room domain.Room) error {
	return p.publish(ctx, EventGameFinished, room.ID, room.Round, gameFinishedPayload{
		GameID:       room.GameKey(),
		Week:         room.Week,
		Players:      room.Players,
		Scores:       room.Scores,
		FinalRanking: room.FinalRanking,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType, roomID string, round int, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	raw, err := json.Marshal(Event{
		Type:       eventType,
		RoomID:     roomID,
		Round:      round,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	msg := kafkago.Message{
		Key:   []byte(roomID),
		Value: raw,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", eventType, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
