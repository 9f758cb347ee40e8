package domain

import "time"

const (
	// MaxPlayers is the room capacity.
	MaxPlayers = 8
	// MinPlayers is the number of players required to start a game.
	MinPlayers = 2
	// TotalRounds is the fixed course length of every room.
	TotalRounds = 5
	// MinExplanationLength is counted in characters after trimming whitespace.
	MinExplanationLength = 10
	// LeaderboardSize caps GetLeaderboard.
	LeaderboardSize = 20
	// MaxNicknameLength caps registered nicknames.
	MaxNicknameLength = 20
)

// Answer is a player's verdict on a statement.
type Answer string

const (
	AnswerTrue  Answer = "TRUE"
	AnswerTwist Answer = "TWIST"
)

// Valid reports whether a is one of the two accepted verdicts.
func (a Answer) Valid() bool {
	return a == AnswerTrue || a == AnswerTwist
}

// RoomStatus is the phase of a room. Transitions only move forward.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

// Statement is one question of a week's bank.
type Statement struct {
	Week        int    `json:"week"`
	Index       int    `json:"index"`
	Text        string `json:"statement"`
	Answer      Answer `json:"answer"`
	Explanation string `json:"explanation"`
	Difficulty  string `json:"difficulty"`
}

// RankingEntry is one line of a finished room's standings.
type RankingEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player"`
	Score    int    `json:"score"`
}

// Room is the durable record of one game session.
// Scores holds the cumulative in-room XP of each player; it is stored on the
// room so that a round commit is a single write. GameID stays unique across
// process lifetimes even when room numbers restart.
type Room struct {
	ID               string         `json:"id"`
	GameID           string         `json:"gameId"`
	Number           int64          `json:"number"`
	Host             string         `json:"host"`
	Players          []string       `json:"players"`
	Status           RoomStatus     `json:"status"`
	Round            int            `json:"round"`
	Week             int            `json:"week"`
	StatementIndices []int          `json:"statementIndices"`
	Scores           map[string]int `json:"scores"`
	FinalRanking     []RankingEntry `json:"finalRanking,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// GameKey identifies the game in profile result markers. Records written
// before game IDs existed fall back to the room ID.
func (r Room) GameKey() string {
	if r.GameID != "" {
		return r.GameID
	}
	return r.ID
}

// HasPlayer reports whether playerID joined the room.
func (r Room) HasPlayer(playerID string) bool {
	for _, p := range r.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never share slices or maps with callers.
func (r Room) Clone() Room {
	out := r
	out.Players = append([]string(nil), r.Players...)
	out.StatementIndices = append([]int(nil), r.StatementIndices...)
	out.FinalRanking = append([]RankingEntry(nil), r.FinalRanking...)
	out.Scores = make(map[string]int, len(r.Scores))
	for k, v := range r.Scores {
		out.Scores[k] = v
	}
	return out
}

// Submission is a player's write-once answer for one round.
// Timestamp is a caller-supplied logical clock used only for ordering.
type Submission struct {
	RoomID      string `json:"roomId"`
	Round       int    `json:"round"`
	PlayerID    string `json:"playerId"`
	Answer      Answer `json:"answer"`
	Explanation string `json:"explanation"`
	Timestamp   int64  `json:"timestamp"`
}

// Key returns the identity of the submission.
func (s Submission) Key() SubmissionKey {
	return SubmissionKey{RoomID: s.RoomID, Round: s.Round, PlayerID: s.PlayerID}
}

// PlayerResult is one player's line of a round report.
type PlayerResult struct {
	PlayerID     string   `json:"player"`
	Answer       Answer   `json:"answer"`
	Correct      bool     `json:"correct"`
	OracleScore  int      `json:"aiScore"`
	Feedback     string   `json:"aiFeedback"`
	XP           int      `json:"roundXp"`
	Breakdown    []string `json:"xpBreakdown"`
	SpeedBonus   bool     `json:"speedBonus"`
	PerfectRound bool     `json:"perfectRound"`
}

// RoundReport is the outcome of a scored round.
type RoundReport struct {
	RoomID        string         `json:"roomId"`
	GameID        string         `json:"gameId"`
	Round         int            `json:"roundNumber"`
	CorrectAnswer Answer         `json:"correctAnswer"`
	Explanation   string         `json:"realExplanation"`
	Difficulty    string         `json:"difficulty"`
	WinnerID      string         `json:"winnerOfRound"`
	Results       []PlayerResult `json:"roundResults"`
	Scores        map[string]int `json:"currentScores"`
	GameOver      bool           `json:"gameOver"`
	FinalRanking  []RankingEntry `json:"finalRanking,omitempty"`
}

// RoundOutcome is returned by ScoreRound: either a waiting status or a report.
type RoundOutcome struct {
	Waiting   bool         `json:"waiting"`
	Submitted int          `json:"submitted"`
	Total     int          `json:"total"`
	Report    *RoundReport `json:"report,omitempty"`
}

// RoomSnapshot is the read view of a room.
type RoomSnapshot struct {
	RoomID           string         `json:"roomId"`
	GameID           string         `json:"gameId"`
	Host             string         `json:"host"`
	Players          []string       `json:"players"`
	PlayerCount      int            `json:"playerCount"`
	Status           RoomStatus     `json:"status"`
	CurrentRound     int            `json:"currentRound"`
	TotalRounds      int            `json:"totalRounds"`
	Week             int            `json:"week"`
	Scores           map[string]int `json:"scores"`
	CurrentStatement string         `json:"currentStatement,omitempty"`
	Difficulty       string         `json:"difficulty,omitempty"`
	SubmittedCount   int            `json:"submittedCount"`
	WaitingFor       int            `json:"waitingFor"`
	FinalRanking     []RankingEntry `json:"finalRanking,omitempty"`
}

// PlayerProfile holds cross-room statistics of a player.
type PlayerProfile struct {
	PlayerID    string `json:"player"`
	Nickname    string `json:"nickname"`
	TotalXP     int    `json:"totalXp"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	BestScore   int    `json:"bestScore"`
	WinStreak   int    `json:"winStreak"`
	BestStreak  int    `json:"bestStreak"`
	Registered  bool   `json:"registered"`
}

// GameResult is a finished game's outcome for one player.
type GameResult struct {
	XPEarned  int  `json:"xpEarned"`
	Won       bool `json:"won"`
	GameScore int  `json:"gameScore"`
}

// LeaderboardEntry is one ranked line of the global leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player"`
	Nickname    string `json:"nickname"`
	TotalXP     int    `json:"totalXp"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	BestScore   int    `json:"bestScore"`
	BestStreak  int    `json:"bestStreak"`
}

// JudgeEntry is one player's answer as sent to the judgment oracle.
type JudgeEntry struct {
	PlayerID    string `json:"player_id"`
	Answer      Answer `json:"answer"`
	Explanation string `json:"explanation"`
}

// JudgeRequest is everything the oracle needs to grade a round.
type JudgeRequest struct {
	Statement     string       `json:"statement"`
	CorrectAnswer Answer       `json:"correct_answer"`
	Explanation   string       `json:"real_explanation"`
	Players       []JudgeEntry `json:"players"`
}

// ExplanationScore is the oracle's grade for one explanation.
type ExplanationScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Judgment is the oracle's verdict for a round.
type Judgment struct {
	Scores   map[string]ExplanationScore `json:"scores"`
	WinnerID string                      `json:"winner_of_round"`
}

// DefaultDifficulty labels statements stored without one.
const DefaultDifficulty = "medium"

// WeeklyQuestions previews every statement of a week, answers included.
type WeeklyQuestions struct {
	Week         int            `json:"weekNumber"`
	Topic        string         `json:"topic"`
	Total        int            `json:"total"`
	ByDifficulty map[string]int `json:"byDifficulty"`
	Questions    []Statement    `json:"questions"`
}

// WeeklyTopic describes the current week's bank.
type WeeklyTopic struct {
	Week            int    `json:"weekNumber"`
	Topic           string `json:"topic"`
	StatementsReady bool   `json:"statementsReady"`
	TotalStatements int    `json:"totalStatements"`
}
