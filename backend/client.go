// Package backend provides the HTTP client for the onboarding collaborator
// API. The setup wizard treats every remote behavior (crawling, data sync,
// AI training, content generation) as an opaque endpoint behind this client:
// a call either returns data directly or hands back a job id to poll.
//
// Example usage:
//
//	client := backend.New("https://api.example.com", "token")
//	res, err := client.Call(ctx, "crawl/start", map[string]any{"depth": 3})
//	if err == nil && res.Async() {
//		state, err := client.JobStatus(ctx, res.JobID)
//		...
//	}
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// APIError is an application-level rejection returned by the collaborator.
// It is distinct from transport failures so callers can tell "the server
// said no" apart from "the server was unreachable".
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s: %s (HTTP %d)", e.Endpoint, e.Message, e.StatusCode)
}

// Client is an HTTP client for the collaborator API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new Client for the given base URL.
// The base URL should include the scheme (e.g., "https://api.example.com").
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes a collaborator endpoint with a JSON payload.
// Returns an *APIError when the collaborator rejects the call.
func (c *Client) Call(ctx context.Context, endpoint string, payload map[string]any) (*CallResult, error) {
	body := []byte("{}")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload for %s: %w", endpoint, err)
		}
	}

	reqURL := fmt.Sprintf("%s/api/v1/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	var result CallResult
	if err := c.do(req, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JobStatus queries the state of a background job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobState, error) {
	reqURL := fmt.Sprintf("%s/api/v1/jobs/%s", c.baseURL, url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating job status request: %w", err)
	}
	c.authorize(req)

	var state JobState
	if err := c.do(req, "jobs/"+jobID, &state); err != nil {
		return nil, err
	}
	if state.JobID == "" {
		state.JobID = jobID
	}
	return &state, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	if resp.StatusCode/100 != 2 {
		return &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}
	return nil
}

// errorMessage extracts the "error" field from a JSON error body,
// falling back to the raw body.
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = "request failed"
	}
	return msg
}
