package hub

import (
	"encoding/json"
	"time"

	"github.com/abrezinsky/trackbet/internal/models"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is a middleman between one websocket connection and the hub
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	sessionID  string
	playerName string
	send       chan *models.Outbound
}

// SessionID returns the session this connection belongs to
func (c *Client) SessionID() string {
	return c.sessionID
}

// PlayerName returns the player identity bound at upgrade time
func (c *Client) PlayerName() string {
	return c.playerName
}

// ReadLoop pumps inbound messages to the handler until the connection
// drops. It blocks; the caller owns the connection's lifetime. Frames
// that are not valid JSON envelopes get an error reply rather than a
// disconnect.
func (c *Client) ReadLoop(handler func(*models.Inbound)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "session_id", c.sessionID, "player", c.playerName, "error", err)
			}
			return
		}

		var msg models.Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.Send(c, &models.Outbound{
				Type:    models.MsgError,
				Message: "malformed message",
			})
			continue
		}
		handler(&msg)
	}
}

// writePump pumps messages from the send channel to the websocket
// connection and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
