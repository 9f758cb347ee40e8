package domain

import (
	"fmt"
	"time"
)

// SubmissionKey identifies one submission cell.
type SubmissionKey struct {
	RoomID   string
	Round    int
	PlayerID string
}

// RoundKey returns the tally key the submission belongs to.
func (k SubmissionKey) RoundKey() RoundKey {
	return RoundKey{RoomID: k.RoomID, Round: k.Round}
}

// RoundKey identifies the tally of one room round.
type RoundKey struct {
	RoomID string
	Round  int
}

// ResultKey identifies the application of one game's result to one profile.
type ResultKey struct {
	GameID   string
	PlayerID string
}

// RoomID formats a room number for display. Uniqueness comes from the counter.
func RoomID(number int64) string {
	return fmt.Sprintf("ROOM-%04d", number)
}

const secondsPerWeek = 7 * 24 * 60 * 60

// WeekNumber derives a monotonically increasing week counter from t.
func WeekNumber(t time.Time) int {
	return int(t.Unix() / secondsPerWeek)
}

var weeklyTopics = []string{
	"science and nature",
	"world history and ancient civilizations",
	"space and astronomy",
	"human biology and medicine",
	"technology and famous inventions",
	"geography and world records",
	"food, nutrition and cooking",
	"famous landmarks and architecture",
	"animals and the natural world",
	"mathematics and surprising numbers",
}

// TopicForWeek returns the rotating bank topic of a week.
func TopicForWeek(week int) string {
	n := len(weeklyTopics)
	i := ((week-1)%n + n) % n
	return weeklyTopics[i]
}
