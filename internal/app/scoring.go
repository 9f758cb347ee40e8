package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"truth-or-twist/internal/domain"
)

// XP rubric. A round is worth at most 45 XP.
const (
	xpCorrect          = 10
	xpSpeed            = 5
	xpPerfect          = 10
	explanationDivisor = 5
	maxOracleScore     = 100
)

// ScoreRound grades the current round once every player has submitted.
// Before that it returns a waiting outcome and changes nothing, so callers poll.
// The check, the oracle call and the commit run under the room lock: concurrent
// callers after the last submission see either the committed round or the next one.
func (s *GameService) ScoreRound(ctx context.Context, roomID string) (domain.RoundOutcome, error) {
	release := s.locks.lock(roomID)
	defer release()

	// Once the round is full the critical section completes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.RoundOutcome{}, err
	}
	if room.Status != domain.StatusActive {
		return domain.RoundOutcome{}, fmt.Errorf("%w: room %s is %s", domain.ErrInvalidState, roomID, room.Status)
	}

	subs, err := s.submissions.ListSubmissions(ctx, domain.RoundKey{RoomID: room.ID, Round: room.Round})
	if err != nil {
		return domain.RoundOutcome{}, fmt.Errorf("list submissions: %w", err)
	}
	ordered := orderByPlayers(room.Players, subs)
	if len(ordered) < len(room.Players) {
		return domain.RoundOutcome{Waiting: true, Submitted: len(ordered), Total: len(room.Players)}, nil
	}

	stmt, err := s.statementForRound(ctx, room, room.Round)
	if err != nil {
		return domain.RoundOutcome{}, err
	}

	req := domain.JudgeRequest{
		Statement:     stmt.Text,
		CorrectAnswer: stmt.Answer,
		Explanation:   stmt.Explanation,
		Players:       make([]domain.JudgeEntry, 0, len(ordered)),
	}
	for _, sub := range ordered {
		req.Players = append(req.Players, domain.JudgeEntry{
			PlayerID:    sub.PlayerID,
			Answer:      sub.Answer,
			Explanation: sub.Explanation,
		})
	}

	judgment, err := s.callJudge(ctx, room, req)
	if err != nil {
		return domain.RoundOutcome{}, err
	}

	// Nothing has been written yet; everything below is one commit.
	results := scoreSubmissions(stmt.Answer, ordered, judgment)
	next := room.Clone()
	for _, r := range results {
		next.Scores[r.PlayerID] += r.XP
	}

	report := domain.RoundReport{
		RoomID:        room.ID,
		GameID:        room.GameKey(),
		Round:         room.Round,
		CorrectAnswer: stmt.Answer,
		Explanation:   stmt.Explanation,
		Difficulty:    stmt.Difficulty,
		WinnerID:      judgment.WinnerID,
		Results:       results,
	}

	if room.Round >= domain.TotalRounds {
		next.Status = domain.StatusFinished
		ranking, err := s.board.FinalizeGame(ctx, next)
		if err != nil {
			return domain.RoundOutcome{}, fmt.Errorf("finalize %s: %w", room.ID, err)
		}
		next.FinalRanking = ranking
		report.GameOver = true
		report.FinalRanking = append([]domain.RankingEntry(nil), ranking...)
	} else {
		next.Round++
	}

	if err := s.rooms.SaveRoom(ctx, next); err != nil {
		return domain.RoundOutcome{}, fmt.Errorf("commit round: %w", err)
	}
	report.Scores = copyScores(next.Scores)

	s.observer.RoundScored(report.GameOver)
	entry := s.log.WithFields(logrus.Fields{"room": room.ID, "round": room.Round, "winner": judgment.WinnerID})
	entry.Info("round scored")
	if err := s.events.PublishRoundScored(ctx, report); err != nil {
		entry.WithError(err).Warn("publish round event")
	}
	if report.GameOver {
		entry.WithField("ranking", next.FinalRanking).Info("game finished")
		if err := s.events.PublishGameFinished(ctx, next); err != nil {
			entry.WithError(err).Warn("publish game event")
		}
	}

	return domain.RoundOutcome{Submitted: len(ordered), Total: len(room.Players), Report: &report}, nil
}

func (s *GameService) callJudge(ctx context.Context, room domain.Room, req domain.JudgeRequest) (domain.Judgment, error) {
	if s.oracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.oracleTimeout)
		defer cancel()
	}

	start := time.Now()
	judgment, err := s.judge.Judge(ctx, req)
	if err == nil {
		err = validateJudgment(req, judgment)
	}
	s.observer.OracleCall(time.Since(start), err)
	if err != nil {
		s.log.WithFields(logrus.Fields{"room": room.ID, "round": room.Round}).WithError(err).Warn("oracle call failed")
		if errors.Is(err, domain.ErrOracleFailure) {
			return domain.Judgment{}, err
		}
		return domain.Judgment{}, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	return judgment, nil
}

// validateJudgment rejects responses that do not grade every player or name a stranger as winner.
func validateJudgment(req domain.JudgeRequest, j domain.Judgment) error {
	if j.WinnerID == "" {
		return fmt.Errorf("%w: missing round winner", domain.ErrOracleFailure)
	}
	winnerKnown := false
	for _, p := range req.Players {
		score, ok := j.Scores[p.PlayerID]
		if !ok {
			return fmt.Errorf("%w: no score for player %s", domain.ErrOracleFailure, p.PlayerID)
		}
		if score.Score < 0 || score.Score > maxOracleScore {
			return fmt.Errorf("%w: score %d for player %s out of range", domain.ErrOracleFailure, score.Score, p.PlayerID)
		}
		if p.PlayerID == j.WinnerID {
			winnerKnown = true
		}
	}
	if !winnerKnown {
		return fmt.Errorf("%w: winner %s is not in the round", domain.ErrOracleFailure, j.WinnerID)
	}
	return nil
}

// scoreSubmissions applies the XP rubric. subs must be in room insertion order.
func scoreSubmissions(correctAnswer domain.Answer, subs []domain.Submission, j domain.Judgment) []domain.PlayerResult {
	fastest := speedBonusRecipient(correctAnswer, subs)

	results := make([]domain.PlayerResult, 0, len(subs))
	for _, sub := range subs {
		graded := j.Scores[sub.PlayerID]
		correct := sub.Answer == correctAnswer

		r := domain.PlayerResult{
			PlayerID:    sub.PlayerID,
			Answer:      sub.Answer,
			Correct:     correct,
			OracleScore: graded.Score,
			Feedback:    graded.Feedback,
		}
		if correct {
			r.XP += xpCorrect
			r.Breakdown = append(r.Breakdown, fmt.Sprintf("+%d correct", xpCorrect))
		}
		explanationXP := graded.Score / explanationDivisor
		r.XP += explanationXP
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("+%d explanation", explanationXP))

		if correct && sub.PlayerID == fastest {
			r.SpeedBonus = true
			r.XP += xpSpeed
			r.Breakdown = append(r.Breakdown, fmt.Sprintf("+%d fastest", xpSpeed))
		}
		if correct && sub.PlayerID == j.WinnerID {
			r.PerfectRound = true
			r.XP += xpPerfect
			r.Breakdown = append(r.Breakdown, fmt.Sprintf("+%d perfect round", xpPerfect))
		}
		results = append(results, r)
	}
	return results
}

// speedBonusRecipient returns the earliest correct submitter; ties go to the
// earlier player in subs. Empty when nobody was correct.
func speedBonusRecipient(correctAnswer domain.Answer, subs []domain.Submission) string {
	byTime := append([]domain.Submission(nil), subs...)
	sort.SliceStable(byTime, func(i, k int) bool {
		return byTime[i].Timestamp < byTime[k].Timestamp
	})
	for _, sub := range byTime {
		if sub.Answer == correctAnswer {
			return sub.PlayerID
		}
	}
	return ""
}

// orderByPlayers keeps only room players' submissions, in room insertion order.
func orderByPlayers(players []string, subs []domain.Submission) []domain.Submission {
	byPlayer := make(map[string]domain.Submission, len(subs))
	for _, sub := range subs {
		byPlayer[sub.PlayerID] = sub
	}
	ordered := make([]domain.Submission, 0, len(players))
	for _, p := range players {
		if sub, ok := byPlayer[p]; ok {
			ordered = append(ordered, sub)
		}
	}
	return ordered
}
