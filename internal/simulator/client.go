package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/types"
)

// ErrUnexpectedStatus is wrapped by APIError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Reason)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

// AppendResult is the body of a successful append.
type AppendResult struct {
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
	DeliveryID string `json:"delivery_id"`
	Position   string `json:"position"`
}

// Client talks to the scoring HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func inningsPath(key model.InningsKey) string {
	return fmt.Sprintf("/matches/%s/innings/%d", url.PathEscape(key.MatchID), key.InningsNo)
}

// Health checks that /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Start starts an innings.
func (c *Client) Start(ctx context.Context, key model.InningsKey) error {
	return c.do(ctx, http.MethodPost, inningsPath(key)+"/start", nil, nil)
}

// End ends an innings.
func (c *Client) End(ctx context.Context, key model.InningsKey) error {
	return c.do(ctx, http.MethodPost, inningsPath(key)+"/end", nil, nil)
}

// Append posts one delivery.
func (c *Client) Append(ctx context.Context, key model.InningsKey, d model.Delivery) (AppendResult, error) {
	var res AppendResult
	body := map[string]any{
		"delivery_id": d.DeliveryID,
		"over_no":     d.OverNo,
		"ball_no":     d.BallNo,
		"striker":     d.Striker,
		"non_striker": d.NonStriker,
		"bowler":      d.Bowler,
		"runs":        d.Runs,
		"extras":      d.Extras,
		"wicket":      d.Wicket,
		"commentary":  d.Commentary,
	}
	err := c.do(ctx, http.MethodPost, inningsPath(key)+"/deliveries", body, &res)
	return res, err
}

// Scoreboard fetches the synchronous scoreboard of an innings.
func (c *Client) Scoreboard(ctx context.Context, key model.InningsKey) (types.Scoreboard, error) {
	var sb types.Scoreboard
	err := c.do(ctx, http.MethodGet, inningsPath(key)+"/scoreboard", nil, &sb)
	return sb, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
