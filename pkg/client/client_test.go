package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abrezinsky/trackbet/pkg/client"
)

// controlServer is a canned HTTP control plane for client tests. Each
// handler maps a path to a status code and JSON body.
func controlServer(t *testing.T, routes map[string]struct {
	status int
	body   string
}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := routes[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(route.status)
		w.Write([]byte(route.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateSession_ReturnsCode(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/sessions": {http.StatusCreated, `{"session_id":"ABCD1234"}`},
	})

	c := client.New(srv.URL)
	id, err := c.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id != "ABCD1234" {
		t.Errorf("expected session id ABCD1234, got %s", id)
	}
}

func TestJoinSession_StoresIdentity(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/sessions/ABCD1234/join": {http.StatusOK,
			`{"session_id":"ABCD1234","player_token":"tok-1","player_name":"alice"}`},
	})

	c := client.New(srv.URL)
	if err := c.JoinSession(context.Background(), "ABCD1234", "alice"); err != nil {
		t.Fatalf("JoinSession failed: %v", err)
	}
	if c.SessionID != "ABCD1234" {
		t.Errorf("expected session id ABCD1234, got %s", c.SessionID)
	}
	if c.PlayerToken != "tok-1" {
		t.Errorf("expected player token tok-1, got %s", c.PlayerToken)
	}
	if c.PlayerName != "alice" {
		t.Errorf("expected player name alice, got %s", c.PlayerName)
	}
}

func TestJoinSession_SendsPlayerName(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding join body: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		w.Write([]byte(`{"session_id":"ABCD1234","player_token":"tok-1","player_name":"alice"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	if err := c.JoinSession(context.Background(), "ABCD1234", "alice"); err != nil {
		t.Fatalf("JoinSession failed: %v", err)
	}
	if got["player_name"] != "alice" {
		t.Errorf("expected player_name alice in request body, got %v", got)
	}
}

func TestReconnect_RestoresIdentity(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/players/reconnect": {http.StatusOK,
			`{"session_id":"ABCD1234","player_token":"tok-1","player_name":"alice"}`},
	})

	c := client.New(srv.URL)
	if err := c.Reconnect(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	if c.SessionID != "ABCD1234" || c.PlayerName != "alice" {
		t.Errorf("identity not restored: session=%s name=%s", c.SessionID, c.PlayerName)
	}
}

func TestState_DecodesSnapshot(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/sessions/ABCD1234/state": {http.StatusOK, `{
			"session_id":"ABCD1234","status":"active","current_race":2,"max_races":4,
			"race_active":true,
			"locked_spots":{"7_win_4_4":"alice"},
			"players":[{"name":"alice","money":15,"tokens":{"5":1},"is_connected":true}],
			"current_bets":[{"player":"alice","horse":"7","bet_type":"win","spot_key":"7_win_4_4","token_value":5,"race_number":2}]
		}`},
	})

	c := client.New(srv.URL)
	c.SessionID = "ABCD1234"
	state, err := c.State(context.Background())
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state.CurrentRace != 2 || !state.RaceActive {
		t.Errorf("unexpected race state: race=%d active=%v", state.CurrentRace, state.RaceActive)
	}
	if state.LockedSpots["7_win_4_4"] != "alice" {
		t.Errorf("expected alice holding 7_win_4_4, got %v", state.LockedSpots)
	}
	if len(state.Players) != 1 || state.Players[0].Money != 15 {
		t.Errorf("unexpected players: %+v", state.Players)
	}
	if len(state.CurrentBets) != 1 || state.CurrentBets[0].SpotKey != "7_win_4_4" {
		t.Errorf("unexpected bets: %+v", state.CurrentBets)
	}
}

func TestState_RequiresSession(t *testing.T) {
	c := client.New("http://localhost:1")
	if _, err := c.State(context.Background()); err == nil {
		t.Error("expected error when fetching state without a session")
	}
}

func TestClient_DecodesServerError(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/sessions/GONE1234/join": {http.StatusNotFound,
			`{"code":"NOT_FOUND","error":"session GONE1234 not found"}`},
	})

	c := client.New(srv.URL)
	err := c.JoinSession(context.Background(), "GONE1234", "alice")
	if err == nil {
		t.Fatal("expected join against missing session to fail")
	}
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("expected error code in message, got %v", err)
	}
	if !strings.Contains(err.Error(), "session GONE1234 not found") {
		t.Errorf("expected server message surfaced, got %v", err)
	}
	if c.SessionID != "" {
		t.Errorf("identity must not be stored on failure, got %s", c.SessionID)
	}
}

func TestClient_FallsBackToStatusOnBadErrorBody(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/sessions": {http.StatusInternalServerError, `<html>boom</html>`},
	})

	c := client.New(srv.URL)
	_, err := c.CreateSession(context.Background())
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status code in fallback message, got %v", err)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	srv := controlServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/sessions": {http.StatusCreated, `{"session_id":"ABCD1234"}`},
	})

	c := client.New(srv.URL + "/")
	if _, err := c.CreateSession(context.Background()); err != nil {
		t.Fatalf("CreateSession with trailing-slash base URL failed: %v", err)
	}
}
