package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abrezinsky/trackbet/internal/hub"
	"github.com/abrezinsky/trackbet/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // LAN party server, any origin may connect
	},
}

// closeInvalidCredentials is the policy close code sent when a token
// does not resolve to the requested session
const closeInvalidCredentials = 4004

// handleWebSocket upgrades the game stream. The reconnect token must
// resolve to the requested session; everything after the upgrade flows
// through the hub and the session manager.
func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	playerToken := chi.URLParam(r, "playerToken")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// The socket outlives this request, so game operations run on a
	// background context rather than the request's.
	ctx := context.Background()

	// Identify is side-effect free; a token for the wrong session must
	// not flip that player's connected state anywhere.
	tokenSession, playerName, err := h.Sessions.Identify(ctx, playerToken)
	if err != nil || tokenSession != sessionID {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(closeInvalidCredentials, "invalid credentials"))
		conn.Close()
		return
	}

	client := h.Hub.Register(sessionID, playerName, conn)
	h.Sessions.SetConnected(ctx, sessionID, playerName, true)

	// Initial sync to the new connection, then announce it
	if snapshot, err := h.Sessions.Snapshot(ctx, sessionID); err == nil {
		h.Hub.Send(client, &models.Outbound{Type: models.MsgStateSync, Data: snapshot})
	}
	h.Hub.BroadcastExcept(sessionID, &models.Outbound{
		Type:       models.MsgPlayerConnected,
		PlayerName: playerName,
	}, client)

	client.ReadLoop(func(msg *models.Inbound) {
		h.dispatch(ctx, client, msg)
	})

	// ReadLoop returned: the connection is gone
	h.Sessions.SetConnected(ctx, sessionID, playerName, false)
	h.Hub.Broadcast(sessionID, &models.Outbound{
		Type:       models.MsgPlayerDisconnected,
		PlayerName: playerName,
	})
}

// dispatch routes one inbound message to its session manager call.
// Accepted mutations broadcast their own state; rejections go back to
// the requesting connection only.
func (h *Handlers) dispatch(ctx context.Context, client *hub.Client, msg *models.Inbound) {
	sessionID := client.SessionID()
	playerName := client.PlayerName()

	switch msg.Type {
	case models.MsgPlaceBet:
		var req models.BetRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.sendError(client, "invalid bet payload")
			return
		}
		if err := h.Sessions.PlaceBet(ctx, sessionID, playerName, &req); err != nil {
			h.sendError(client, err.Error())
		}

	case models.MsgRemoveBet:
		if err := h.Sessions.RemoveBet(ctx, sessionID, playerName, msg.SpotKey); err != nil {
			h.sendError(client, err.Error())
		}

	case models.MsgStartRace:
		if _, err := h.Sessions.StartRace(ctx, sessionID); err != nil {
			h.sendError(client, err.Error())
		}

	case models.MsgEndRace:
		var results models.RaceResults
		if err := json.Unmarshal(msg.Data, &results); err != nil {
			h.sendError(client, "invalid race results payload")
			return
		}
		if _, err := h.Sessions.EndRace(ctx, sessionID, &results); err != nil {
			h.sendError(client, err.Error())
		}

	case models.MsgNextRace:
		if _, err := h.Sessions.NextRace(ctx, sessionID); err != nil {
			h.sendError(client, err.Error())
		}

	case models.MsgRequestState:
		snapshot, err := h.Sessions.Snapshot(ctx, sessionID)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		h.Hub.Send(client, &models.Outbound{Type: models.MsgStateSync, Data: snapshot})

	default:
		h.sendError(client, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (h *Handlers) sendError(client *hub.Client, message string) {
	h.Hub.Send(client, &models.Outbound{
		Type:    models.MsgError,
		Message: message,
	})
}
