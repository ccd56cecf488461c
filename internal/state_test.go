package study

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialClient(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/connect?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket for %s: %v", user, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestNotifyUserReachesOnlyThatUser: statistics are pushed per user; one
// user's refreshed totals must never land on another user's socket.
func TestNotifyUserReachesOnlyThatUser(t *testing.T) {
	state := &State{}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		state.AddClient(conn, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	alice := dialClient(t, srv, "alice")
	bob := dialClient(t, srv, "bob")

	state.NotifyUser("alice", map[string]any{"event": "statistics", "window": "daily"})

	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := alice.ReadMessage()
	if err != nil {
		t.Fatalf("Alice should have received the push: %v", err)
	}
	if !strings.Contains(string(message), `"event":"statistics"`) {
		t.Errorf("Unexpected message for alice: %s", message)
	}

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, message, err := bob.ReadMessage(); err == nil {
		t.Errorf("Bob should not have received alice's statistics, got: %s", message)
	}
}
