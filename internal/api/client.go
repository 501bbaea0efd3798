// Package api is the typed HTTP client for the remote collection endpoint.
// It separates the three ways a request can fail so the sync engine can
// treat them uniformly as transient without guessing from error strings.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ConnectError means no response arrived at all: DNS, refused connection,
// or timeout. The affected session is retried on the next cycle.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("connect: %v", e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// APIError is a non-2xx response with a structured error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// ParseError is a malformed response body on an otherwise successful
// request. Treated as a failure of that one request.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse response: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// SessionPush is the payload for one session. Duration is intentionally
// absent: the remote side recomputes it from the timestamps and is the
// authoritative source for it.
type SessionPush struct {
	ChildID   string    `json:"child_id"`
	GameName  string    `json:"game_name"`
	Category  string    `json:"category"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	DeviceID  string    `json:"device_id"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the remote collection endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given collection endpoint URL. Every
// request carries a bounded timeout so a hung call can never stall a timer
// loop indefinitely.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PushSession POSTs one session to the collection endpoint. A 2xx status is
// success; anything else maps onto the error taxonomy above.
func (c *Client) PushSession(ctx context.Context, push SessionPush) error {
	body, err := json.Marshal(push)
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return &APIError{Status: resp.StatusCode}
		}
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	return nil
}

// Heartbeat GETs the collection endpoint parameterized with the child id: a
// lightweight liveness ping, not a data push. Only the status code matters;
// the body is ignored.
func (c *Client) Heartbeat(ctx context.Context, childID string) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("child_id", childID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}
