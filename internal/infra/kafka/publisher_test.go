package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"truth-or-twist/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishRoundScored(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w)
	p.now = func() time.Time { return time.Unix(1700000000, 0) }

	report := domain.RoundReport{RoomID: "ROOM-0001", Round: 2, CorrectAnswer: domain.AnswerTwist, WinnerID: "A", Scores: map[string]int{"A": 42}}
	require.NoError(t, p.PublishRoundScored(context.Background(), report))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "ROOM-0001", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, EventRoundScored, string(msg.Headers[0].Value))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, EventRoundScored, ev.Type)
	assert.Equal(t, 2, ev.Round)
	assert.True(t, ev.OccurredAt.Equal(time.Unix(1700000000, 0)))

	var got domain.RoundReport
	require.NoError(t, json.Unmarshal(ev.Payload, &got))
	assert.Equal(t, "A", got.WinnerID)
	assert.Equal(t, 42, got.Scores["A"])
}

func TestPublishGameFinished(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w)

	room := domain.Room{
		ID:           "ROOM-0002",
		GameID:       "6a1f0c2e-game",
		Players:      []string{"A", "B"},
		Round:        5,
		Week:         9,
		Scores:       map[string]int{"A": 30, "B": 12},
		FinalRanking: []domain.RankingEntry{{Rank: 1, PlayerID: "A", Score: 30}, {Rank: 2, PlayerID: "B", Score: 12}},
	}
	require.NoError(t, p.PublishGameFinished(context.Background(), room))

	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventGameFinished, ev.Type)

	var payload gameFinishedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, 9, payload.Week)
	assert.Equal(t, "6a1f0c2e-game", payload.GameID)
	assert.Equal(t, room.FinalRanking, payload.FinalRanking)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newPublisher(&fakeWriter{err: boom})
	err := p.PublishRoundScored(context.Background(), domain.RoundReport{RoomID: "ROOM-0001"})
	assert.ErrorIs(t, err, boom)
}
