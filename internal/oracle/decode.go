package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"truth-or-twist/internal/domain"
)

var validate = validator.New()

// oracleScore accepts a JSON number or numeric string and truncates it toward zero.
type oracleScore int

func (s *oracleScore) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(text))
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("score %s is not a number", data)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1e6 {
		return fmt.Errorf("score %s is not a finite number", data)
	}
	*s = oracleScore(math.Trunc(f))
	return nil
}

type scorePayload struct {
	Score    *oracleScore `json:"score" validate:"required,min=0,max=100"`
	Feedback string       `json:"feedback"`
}

type judgmentPayload struct {
	Scores   map[string]scorePayload `json:"scores" validate:"required,min=1,dive"`
	WinnerID string                  `json:"winner_of_round" validate:"required"`
}

// DecodeJudgment parses an oracle reply. Replies wrapped in a markdown code
// fence are unwrapped first. Errors wrap domain.ErrOracleFailure.
func DecodeJudgment(raw []byte) (domain.Judgment, error) {
	body := stripFence(string(raw))

	var payload judgmentPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: decode reply: %v", domain.ErrOracleFailure, err)
	}
	if err := validate.Struct(payload); err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: invalid reply: %v", domain.ErrOracleFailure, err)
	}

	j := domain.Judgment{
		Scores:   make(map[string]domain.ExplanationScore, len(payload.Scores)),
		WinnerID: payload.WinnerID,
	}
	for player, s := range payload.Scores {
		j.Scores[player] = domain.ExplanationScore{Score: int(*s.Score), Feedback: s.Feedback}
	}
	return j, nil
}

// stripFence removes a leading ``` line (with optional language tag) and a trailing ```.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
