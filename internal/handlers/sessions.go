package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, HealthResponse{
		Status:  "ok",
		Message: "TrackBet Multiplayer Server",
		Version: Version,
	})
}

func (h *Handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.Sessions.CreateSession(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondCreated(w, CreateSessionResponse{
		Success:   true,
		SessionID: sessionID,
		Message:   fmt.Sprintf("Session %s created", sessionID),
	})
}

func (h *Handlers) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PlayerName == "" {
		respondError(w, BadRequest("player_name is required"))
		return
	}

	token, err := h.Sessions.Join(r.Context(), sessionID, req.PlayerName)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, JoinResponse{
		Success:     true,
		PlayerToken: token,
		SessionID:   sessionID,
		PlayerName:  req.PlayerName,
	})
}

func (h *Handlers) handleReconnect(w http.ResponseWriter, r *http.Request) {
	var req ReconnectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PlayerToken == "" {
		respondError(w, BadRequest("player_token is required"))
		return
	}

	sessionID, playerName, err := h.Sessions.Reconnect(r.Context(), req.PlayerToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, JoinResponse{
		Success:     true,
		PlayerToken: req.PlayerToken,
		SessionID:   sessionID,
		PlayerName:  playerName,
	})
}

func (h *Handlers) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snapshot, err := h.Sessions.Snapshot(r.Context(), sessionID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, snapshot)
}

func (h *Handlers) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	events, err := h.Sessions.Events(r.Context(), sessionID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, events)
}

// handleSessionQR returns a QR code PNG encoding the session's join
// link, for sharing a game across a room
func (h *Handlers) handleSessionQR(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// 404 unknown sessions before minting an image for them
	if _, err := h.Sessions.Snapshot(r.Context(), sessionID); err != nil {
		respondError(w, err)
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", strings.TrimSuffix(h.BaseURL, "/"), sessionID)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		respondError(w, InternalError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
