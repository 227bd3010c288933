package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler receives one server message. Handlers run on the stream's
// read goroutine; do not block in them.
type Handler func(*Message)

// stream is the live WebSocket connection
type stream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
}

// On registers a handler for a message type, replacing any previous
// handler for that type. Register before Connect to avoid missing the
// initial state_sync.
func (c *Client) On(messageType string, handler Handler) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	if c.callbacks == nil {
		c.callbacks = make(map[string]Handler)
	}
	c.callbacks[messageType] = handler
}

func (c *Client) handlerFor(messageType string) Handler {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()
	return c.callbacks[messageType]
}

// Connect opens the game stream. JoinSession or Reconnect must have
// succeeded first. Incoming messages are dispatched to handlers
// registered with On until the connection drops or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	if c.SessionID == "" || c.PlayerToken == "" {
		return fmt.Errorf("join or reconnect before connecting")
	}
	if c.Connected() {
		return fmt.Errorf("already connected")
	}

	wsURL, err := c.streamURL()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", wsURL, err)
	}

	c.stream = &stream{
		conn: conn,
		done: make(chan struct{}),
	}
	go c.readLoop(c.stream)
	return nil
}

// streamURL converts the HTTP base URL into the ws endpoint for this
// client's session and token
func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("bad base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf("/ws/%s/%s", c.SessionID, c.PlayerToken)
	return u.String(), nil
}

// Connected reports whether the game stream is open
func (c *Client) Connected() bool {
	if c.stream == nil {
		return false
	}
	select {
	case <-c.stream.done:
		return false
	default:
		return true
	}
}

// Close shuts the game stream down
func (c *Client) Close() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.conn.Close()
}

// PlaceBet sends a place_bet message
func (c *Client) PlaceBet(bet *BetRequest) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return err
	}
	return c.send(&Message{Type: "place_bet", Data: data})
}

// RemoveBet sends a remove_bet message for a spot key
func (c *Client) RemoveBet(spotKey string) error {
	return c.send(&Message{Type: "remove_bet", SpotKey: spotKey})
}

// StartRace opens betting for the current race
func (c *Client) StartRace() error {
	return c.send(&Message{Type: "start_race"})
}

// EndRace submits race results for settlement
func (c *Client) EndRace(results *RaceResults) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.send(&Message{Type: "end_race", Data: data})
}

// NextRace advances to the next race
func (c *Client) NextRace() error {
	return c.send(&Message{Type: "next_race"})
}

// RequestState asks the server for a full state sync
func (c *Client) RequestState() error {
	return c.send(&Message{Type: "request_state"})
}

func (c *Client) send(msg *Message) error {
	if !c.Connected() {
		return fmt.Errorf("not connected")
	}
	s := c.stream
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (c *Client) readLoop(s *stream) {
	defer close(s.done)
	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}
		if handler := c.handlerFor(msg.Type); handler != nil {
			handler(&msg)
		}
	}
}
