package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"truth-or-twist/internal/domain"
)

const maxReplyBytes = 1 << 20

// HTTPJudge posts the round to a grading service and decodes its verdict.
type HTTPJudge struct {
	url    string
	client *http.Client
}

func NewHTTPJudge(url string, timeout time.Duration) *HTTPJudge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPJudge{url: url, client: &http.Client{Timeout: timeout}}
}

func (j *HTTPJudge) Judge(ctx context.Context, req domain.JudgeRequest) (domain.Judgment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: encode request: %v", domain.ErrOracleFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: build request: %v", domain.ErrOracleFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(httpReq)
	if err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: read reply: %v", domain.ErrOracleFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Judgment{}, fmt.Errorf("%w: oracle returned status %d", domain.ErrOracleFailure, resp.StatusCode)
	}
	return DecodeJudgment(raw)
}
