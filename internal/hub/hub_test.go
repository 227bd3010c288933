package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/trackbet/internal/logger"
	"github.com/abrezinsky/trackbet/internal/models"
)

// testConn is one registered server-side client paired with the dialer
// end of its connection.
type testConn struct {
	client *Client
	peer   *websocket.Conn
}

// pump is a test harness around a Hub and an httptest server that
// upgrades and registers every incoming connection.
type pump struct {
	hub     *Hub
	srv     *httptest.Server
	clients chan *Client
}

func newPump(t *testing.T) *pump {
	t.Helper()
	h := New(logger.New())
	upgrader := websocket.Upgrader{}

	clients := make(chan *Client, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		sessionID := r.URL.Query().Get("session")
		player := r.URL.Query().Get("player")
		clients <- h.Register(sessionID, player, conn)
	}))
	t.Cleanup(srv.Close)

	p := &pump{hub: h, srv: srv}
	p.clients = clients
	return p
}

func (p *pump) connect(t *testing.T, sessionID, player string) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(p.srv.URL, "http") + "?session=" + sessionID + "&player=" + player
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { peer.Close() })

	select {
	case client := <-p.clients:
		return &testConn{client: client, peer: peer}
	case <-time.After(time.Second):
		t.Fatal("server never registered the connection")
		return nil
	}
}

// receive reads one envelope off the dialer end
func (tc *testConn) receive(t *testing.T) *models.Outbound {
	t.Helper()
	tc.peer.SetReadDeadline(time.Now().Add(time.Second))
	var msg models.Outbound
	if err := tc.peer.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return &msg
}

// expectSilence asserts nothing arrives within the window
func (tc *testConn) expectSilence(t *testing.T) {
	t.Helper()
	tc.peer.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var msg models.Outbound
	if err := tc.peer.ReadJSON(&msg); err == nil {
		t.Errorf("expected no message, got %q", msg.Type)
	}
}

func TestRegister_TracksSessionClients(t *testing.T) {
	p := newPump(t)

	p.connect(t, "AAAA1111", "alice")
	p.connect(t, "AAAA1111", "bob")
	p.connect(t, "BBBB2222", "carol")

	if got := p.hub.SessionClients("AAAA1111"); got != 2 {
		t.Errorf("expected 2 clients in AAAA1111, got %d", got)
	}
	if got := p.hub.SessionClients("BBBB2222"); got != 1 {
		t.Errorf("expected 1 client in BBBB2222, got %d", got)
	}
	if got := p.hub.SessionClients("CCCC3333"); got != 0 {
		t.Errorf("expected 0 clients in unknown session, got %d", got)
	}
}

func TestClient_Identity(t *testing.T) {
	p := newPump(t)
	tc := p.connect(t, "AAAA1111", "alice")

	if tc.client.SessionID() != "AAAA1111" {
		t.Errorf("session id = %q", tc.client.SessionID())
	}
	if tc.client.PlayerName() != "alice" {
		t.Errorf("player name = %q", tc.client.PlayerName())
	}
}

func TestBroadcast_ReachesWholeSessionOnly(t *testing.T) {
	p := newPump(t)

	alice := p.connect(t, "AAAA1111", "alice")
	bob := p.connect(t, "AAAA1111", "bob")
	carol := p.connect(t, "BBBB2222", "carol")

	p.hub.Broadcast("AAAA1111", &models.Outbound{Type: models.MsgRaceStarted, RaceNumber: 2})

	for _, tc := range []*testConn{alice, bob} {
		msg := tc.receive(t)
		if msg.Type != models.MsgRaceStarted {
			t.Errorf("expected race_started, got %q", msg.Type)
		}
		if msg.RaceNumber != 2 {
			t.Errorf("expected race number 2, got %d", msg.RaceNumber)
		}
	}
	carol.expectSilence(t)
}

func TestBroadcastExcept_SkipsExcluded(t *testing.T) {
	p := newPump(t)

	alice := p.connect(t, "AAAA1111", "alice")
	bob := p.connect(t, "AAAA1111", "bob")

	p.hub.BroadcastExcept("AAAA1111",
		&models.Outbound{Type: models.MsgPlayerConnected, PlayerName: "alice"}, alice.client)

	msg := bob.receive(t)
	if msg.Type != models.MsgPlayerConnected || msg.PlayerName != "alice" {
		t.Errorf("unexpected message: %+v", msg)
	}
	alice.expectSilence(t)
}

func TestSend_TargetsOneClient(t *testing.T) {
	p := newPump(t)

	alice := p.connect(t, "AAAA1111", "alice")
	bob := p.connect(t, "AAAA1111", "bob")

	p.hub.Send(alice.client, &models.Outbound{Type: models.MsgError, Message: "just you"})

	msg := alice.receive(t)
	if msg.Type != models.MsgError || msg.Message != "just you" {
		t.Errorf("unexpected message: %+v", msg)
	}
	bob.expectSilence(t)
}

func TestUnregister_Idempotent(t *testing.T) {
	p := newPump(t)
	tc := p.connect(t, "AAAA1111", "alice")

	p.hub.Unregister(tc.client)
	p.hub.Unregister(tc.client) // second call must not panic

	if got := p.hub.SessionClients("AAAA1111"); got != 0 {
		t.Errorf("expected empty session after unregister, got %d", got)
	}

	// Sending to an unregistered client is a silent no-op
	p.hub.Send(tc.client, &models.Outbound{Type: models.MsgError})
}

func TestReadLoop_DispatchesAndRepliesToGarbage(t *testing.T) {
	p := newPump(t)
	tc := p.connect(t, "AAAA1111", "alice")

	inbound := make(chan *models.Inbound, 1)
	go tc.client.ReadLoop(func(msg *models.Inbound) {
		inbound <- msg
	})

	// Garbage gets an error reply, not a disconnect
	if err := tc.peer.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	msg := tc.receive(t)
	if msg.Type != models.MsgError {
		t.Errorf("expected error reply, got %q", msg.Type)
	}

	// A valid envelope reaches the handler
	if err := tc.peer.WriteJSON(&models.Inbound{Type: models.MsgStartRace}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case got := <-inbound:
		if got.Type != models.MsgStartRace {
			t.Errorf("expected start_race, got %q", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never saw the message")
	}
}

func TestReadLoop_UnregistersOnClose(t *testing.T) {
	p := newPump(t)
	tc := p.connect(t, "AAAA1111", "alice")

	done := make(chan struct{})
	go func() {
		tc.client.ReadLoop(func(*models.Inbound) {})
		close(done)
	}()

	tc.peer.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read loop did not exit on peer close")
	}
	if got := p.hub.SessionClients("AAAA1111"); got != 0 {
		t.Errorf("expected client reaped after close, got %d", got)
	}
}
