// Package backend talks to the travel assistant chat endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"travelbot/internal/chat"
)

// ErrMalformedReply is returned when the backend answers 2xx with a body
// that is not a usable reply
var ErrMalformedReply = errors.New("malformed reply")

// maxErrorBody bounds how much of a failed response is kept in StatusError
const maxErrorBody = 512

// StatusError reports a non-2xx answer from the backend
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// Client handles communication with the chat endpoint
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
}

// NewClient creates a new backend client. A zero timeout means requests
// only end when ctx does.
func NewClient(baseURL, path string, timeout time.Duration) *Client {
	if path == "" {
		path = "/chat"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    "/" + strings.TrimLeft(path, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.baseURL + c.path
}

// wireReply mirrors the JSON body. Response is a pointer so a missing
// field can be told apart from an empty answer.
type wireReply struct {
	Response *string `json:"response"`
	City     *string `json:"city"`
}

// Chat posts one turn and decodes the reply
func (c *Client) Chat(ctx context.Context, req chat.Request) (chat.Reply, error) {
	if req.History == nil {
		req.History = []chat.Turn{}
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(jsonData))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return chat.Reply{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var wire wireReply
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return chat.Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if wire.Response == nil {
		return chat.Reply{}, fmt.Errorf("%w: missing response field", ErrMalformedReply)
	}

	return chat.Reply{Response: *wire.Response, City: wire.City}, nil
}
