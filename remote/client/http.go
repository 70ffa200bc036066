package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"reqsync/internal/models"
)

const maxResponseBody = 64 << 10

// HTTPClient talks to the admin system over its JSON HTTP API
type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	pushTimeout    time.Duration
	healthTimeout  time.Duration
	rejectStatuses map[int]struct{}
	logger         *log.Logger
}

// pushBody is the JSON document sent to POST <base>/requests: the payload fields plus metadata
type pushBody struct {
	ID string `json:"id"`
	models.Payload
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// remoteReply is the subset of the admin system's response envelope used for rejection reasons
type remoteReply struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Push sends one record and classifies the response
func (c *HTTPClient) Push(ctx context.Context, rec models.Record) Outcome {
	body, err := json.Marshal(pushBody{
		ID:        rec.ID,
		Payload:   rec.Payload,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		// A record that cannot be encoded will never be accepted.
		return Outcome{Verdict: Rejected, Reason: fmt.Sprintf("encode record: %v", err)}
	}

	pushCtx, cancel := context.WithTimeout(ctx, c.pushTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pushCtx, http.MethodPost, c.baseURL+"/requests", bytes.NewReader(body))
	if err != nil {
		return Outcome{Verdict: Unreachable, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{Verdict: Unreachable, Reason: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Outcome{Verdict: Accepted, StatusCode: resp.StatusCode}
	case c.isReject(resp.StatusCode):
		return Outcome{Verdict: Rejected, StatusCode: resp.StatusCode, Reason: rejectReason(resp.StatusCode, raw)}
	default:
		return Outcome{Verdict: Unreachable, StatusCode: resp.StatusCode, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
}

// IsReachable issues GET <base>/health and reports whether it answered 2xx in time
func (c *HTTPClient) IsReachable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.logger.Printf("Health probe: failed to build request: %v", err)
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("Health probe: remote is offline: %v", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("Health probe: remote answered HTTP %d", resp.StatusCode)
		return false
	}
	return true
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) isReject(code int) bool {
	_, ok := c.rejectStatuses[code]
	return ok
}

func rejectReason(code int, raw []byte) string {
	var reply remoteReply
	if json.Unmarshal(raw, &reply) == nil {
		if reply.Error != "" {
			return reply.Error
		}
		if reply.Message != "" {
			return reply.Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 256 {
		return text
	}
	return fmt.Sprintf("HTTP %d %s", code, http.StatusText(code))
}

var _ Client = (*HTTPClient)(nil)
