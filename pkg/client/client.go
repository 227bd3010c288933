// Package client is a Go client for a trackbet server: the HTTP
// control plane for session lifecycle and the WebSocket stream for
// game traffic.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to one trackbet server. Join or reconnect first, then
// Connect to open the game stream. A Client is safe for concurrent
// sends once connected.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Identity captured by JoinSession or Reconnect
	SessionID   string
	PlayerToken string
	PlayerName  string

	stream    *stream
	cbMu      sync.RWMutex
	callbacks map[string]Handler
}

// New creates a client for the server at baseURL,
// e.g. http://192.168.1.20:8081
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type joinResponse struct {
	PlayerToken string `json:"player_token"`
	SessionID   string `json:"session_id"`
	PlayerName  string `json:"player_name"`
}

// CreateSession creates a new game session and returns its code
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp createSessionResponse
	if err := c.post(ctx, "/api/sessions", nil, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// JoinSession joins a session as a new player and stores the returned
// identity on the client
func (c *Client) JoinSession(ctx context.Context, sessionID, playerName string) error {
	body := map[string]string{"player_name": playerName}
	var resp joinResponse
	if err := c.post(ctx, fmt.Sprintf("/api/sessions/%s/join", sessionID), body, &resp); err != nil {
		return err
	}
	c.SessionID = resp.SessionID
	c.PlayerToken = resp.PlayerToken
	c.PlayerName = resp.PlayerName
	return nil
}

// Reconnect resumes a previous identity from its reconnect token
func (c *Client) Reconnect(ctx context.Context, playerToken string) error {
	body := map[string]string{"player_token": playerToken}
	var resp joinResponse
	if err := c.post(ctx, "/api/players/reconnect", body, &resp); err != nil {
		return err
	}
	c.SessionID = resp.SessionID
	c.PlayerToken = resp.PlayerToken
	c.PlayerName = resp.PlayerName
	return nil
}

// State fetches the current session snapshot over HTTP
func (c *Client) State(ctx context.Context) (*SessionState, error) {
	if c.SessionID == "" {
		return nil, fmt.Errorf("not in a session")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+fmt.Sprintf("/api/sessions/%s/state", c.SessionID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var state SessionState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &state, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("server error (%s): %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
