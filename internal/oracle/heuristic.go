package oracle

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"truth-or-twist/internal/domain"
)

// Heuristic grades explanations locally for runs without a grading service.
// Up to 60 points for length, plus 10 per keyword shared with the canonical
// explanation, capped at 100. The winner is the highest score; ties go to the
// earlier player.
type Heuristic struct{}

func (Heuristic) Judge(_ context.Context, req domain.JudgeRequest) (domain.Judgment, error) {
	keywords := keywordSet(req.Explanation)

	j := domain.Judgment{Scores: make(map[string]domain.ExplanationScore, len(req.Players))}
	best := -1
	for _, p := range req.Players {
		score := min(60, utf8.RuneCountInString(strings.TrimSpace(p.Explanation)))
		shared := 0
		for w := range keywordSet(p.Explanation) {
			if _, ok := keywords[w]; ok {
				shared++
			}
		}
		score = min(100, score+10*shared)

		j.Scores[p.PlayerID] = domain.ExplanationScore{Score: score, Feedback: feedbackFor(score)}
		if score > best {
			best = score
			j.WinnerID = p.PlayerID
		}
	}
	return j, nil
}

func keywordSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 {
			set[w] = struct{}{}
		}
	}
	return set
}

func feedbackFor(score int) string {
	switch {
	case score >= 80:
		return "Excellent, accurate and well reasoned."
	case score >= 60:
		return "Good, mostly correct with minor gaps."
	case score >= 40:
		return "Average, partially correct."
	case score >= 20:
		return "Weak, but shows some thought."
	default:
		return "Very poor or off topic."
	}
}
