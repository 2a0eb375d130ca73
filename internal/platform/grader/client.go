package grader

import (
	"bytes"
	"code_golf/internal/common"
	"code_golf/internal/platform/config"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Verdict is the grading service's answer for one submission. The core
// never computes or adjusts these values itself.
type Verdict struct {
	Valid bool `json:"valid"`
	Score int  `json:"score"`
}

// GradeRequest is the payload sent to the external grading service.
type GradeRequest struct {
	ChallengeID      string `json:"challenge_id"`
	CriteriaRevision int    `json:"criteria_revision"`
	Language         string `json:"language"`
	Version          string `json:"version"`
	Code             string `json:"code"`
}

// Client calls the external grading service over HTTP. Grading is
// synchronous; a transport error or non-2xx response surfaces as
// common.ErrGradingUnavailable and the caller persists nothing.
type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(config.AppConfig.GraderTimeoutMs) * time.Millisecond,
		},
		url: config.AppConfig.GraderURL,
	}
}

func (c *Client) Grade(ctx context.Context, req GradeRequest) (Verdict, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to marshal grade request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to build grade request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Verdict{}, fmt.Errorf("grading service unreachable: %w", common.ErrGradingUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Verdict{}, fmt.Errorf("grading service returned status %d: %w", resp.StatusCode, common.ErrGradingUnavailable)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return Verdict{}, fmt.Errorf("malformed grading response: %w", common.ErrGradingUnavailable)
	}
	return verdict, nil
}
