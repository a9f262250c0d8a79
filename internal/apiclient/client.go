// Package apiclient provides a Go SDK for talking to an adminapi server
// (cmd/apiserver), so callers don't have to build raw HTTP requests and
// JSON bodies by hand.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one adminapi server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a Client. timeout protects every call from hanging forever;
// it defaults to 10 seconds when zero.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login authenticates with the operator API key and stores the returned
// bearer token for subsequent calls.
func (c *Client) Login(ctx context.Context, apiKey string) error {
	body, _ := json.Marshal(map[string]string{"api_key": apiKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	c.token = result.Token
	return nil
}

// UpdateRequest is the body of an update-consensus call.
type UpdateRequest struct {
	Name          string `json:"name"`
	Content       string `json:"content"`
	Version       int    `json:"version"`
	AckTimeoutMs  int    `json:"ack_timeout_ms"`
	RetryLimit    int    `json:"retry_limit"`
	RetryPeriodMs int    `json:"retry_period_ms"`
}

// UpdateResponse reports whether every replica acknowledged.
type UpdateResponse struct {
	OK           bool  `json:"ok"`
	Unresponsive []int `json:"unresponsive"`
}

// Update drives the cluster's update-consensus protocol over HTTP.
func (c *Client) Update(ctx context.Context, req UpdateRequest) (*UpdateResponse, error) {
	var out UpdateResponse
	if err := c.postJSON(ctx, "/consensus/update", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RestoreRequest is the body of a restore-consensus call.
type RestoreRequest struct {
	RetryLimit    int `json:"retry_limit"`
	RetryPeriodMs int `json:"retry_period_ms"`
}

// RestoreResponse carries the reconciled artifact.
type RestoreResponse struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
	Content string `json:"content"`
}

// Restore drives the cluster's restore-consensus protocol over HTTP.
func (c *Client) Restore(ctx context.Context, req RestoreRequest) (*RestoreResponse, error) {
	var out RestoreResponse
	if err := c.postJSON(ctx, "/consensus/restore", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryUnresponsiveRequest is the body of a retry-unresponsive call.
type RetryUnresponsiveRequest struct {
	Name            string `json:"name"`
	Content         string `json:"content"`
	Version         int    `json:"version"`
	LongRetryLimit  int    `json:"long_retry_limit"`
	RetryIntervalMs int    `json:"retry_interval_ms"`
}

// RetryUnresponsiveResponse reports the updated bookkeeping sets.
type RetryUnresponsiveResponse struct {
	Unresponsive []int `json:"unresponsive"`
	Unavailable  []int `json:"unavailable"`
}

// RetryUnresponsive drives the cluster's long-retry protocol over HTTP.
func (c *Client) RetryUnresponsive(ctx context.Context, req RetryUnresponsiveRequest) (*RetryUnresponsiveResponse, error) {
	var out RetryUnresponsiveResponse
	if err := c.postJSON(ctx, "/consensus/retry-unresponsive", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StatusResponse reports the cluster's current bookkeeping state.
type StatusResponse struct {
	Total        int   `json:"total"`
	Unresponsive []int `json:"unresponsive"`
	Unavailable  []int `json:"unavailable"`
}

// Status fetches the cluster's current state.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cluster/status", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var out StatusResponse
	return &out, json.NewDecoder(resp.Body).Decode(&out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError carries the HTTP status and the error message from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
