package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// wsServer runs handler for each websocket connection and returns the
// ws:// URL to dial.
func wsServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readRequest(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	var req map[string]interface{}
	if err := conn.ReadJSON(&req); err != nil {
		t.Errorf("server read failed: %v", err)
		return nil
	}
	return req
}

func TestSendRequestEmptyQueryShortCircuits(t *testing.T) {
	// No server at all: a blank query must not dial.
	ch := NewChannel("ws://127.0.0.1:1/ws", time.Second, 20, nil)

	display, history := ch.SendRequest("search", map[string]interface{}{
		"query":   "   ",
		"history": [][]string{},
	})
	if display != "" {
		t.Errorf("unexpected display text: %q", display)
	}
	if len(history) != 1 || history[0][1] != "No query entered" {
		t.Fatalf("unexpected history: %v", history)
	}
	if ch.State() != StateDisconnected {
		t.Errorf("blank query must not connect, state=%s", ch.State())
	}
}

func TestSendRequestSearchSuccess(t *testing.T) {
	uri := wsServer(t, func(conn *websocket.Conn) {
		req := readRequest(t, conn)
		if req["action"] != "search" {
			t.Errorf("unexpected action: %v", req["action"])
		}
		_ = conn.WriteJSON(map[string]interface{}{"result": "CAPEC answer"})
	})

	ch := NewChannel(uri, 2*time.Second, 20, nil)
	defer ch.Disconnect()

	display, history := ch.SendRequest("search", map[string]interface{}{
		"query":   "what is CAPEC-66?",
		"history": [][]string{{"earlier q", "earlier a"}},
	})
	if display != "" {
		t.Errorf("search display should be empty, got %q", display)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	last := history[1]
	if last[0] != "what is CAPEC-66?" || last[1] != "CAPEC answer" {
		t.Fatalf("unexpected history entry: %v", last)
	}
	if ch.State() != StateConnected {
		t.Errorf("successful exchange should leave the channel connected, state=%s", ch.State())
	}
}

func TestSendRequestSwallowsHeartbeat(t *testing.T) {
	uri := wsServer(t, func(conn *websocket.Conn) {
		readRequest(t, conn)

		// Heartbeat arrives mid-exchange; the client must answer it and
		// keep waiting for the real response.
		_ = conn.WriteJSON(map[string]interface{}{"type": "ping", "timestamp": 1234})

		var pong map[string]interface{}
		if err := conn.ReadJSON(&pong); err != nil {
			t.Errorf("expected pong, read failed: %v", err)
			return
		}
		if pong["action"] != "pong" {
			t.Errorf("expected pong action, got %v", pong["action"])
		}

		_ = conn.WriteJSON(map[string]interface{}{"result": "late answer"})
	})

	ch := NewChannel(uri, 2*time.Second, 20, nil)
	defer ch.Disconnect()

	_, history := ch.SendRequest("search", map[string]interface{}{"query": "q"})
	if len(history) != 1 || history[0][1] != "late answer" {
		t.Fatalf("unexpected history: %v", history)
	}
}

func TestSendRequestErrorFrame(t *testing.T) {
	uri := wsServer(t, func(conn *websocket.Conn) {
		readRequest(t, conn)
		_ = conn.WriteJSON(map[string]interface{}{"error": "Search failed: store down"})
	})

	ch := NewChannel(uri, 2*time.Second, 20, nil)
	defer ch.Disconnect()

	_, history := ch.SendRequest("search", map[string]interface{}{"query": "q"})
	if len(history) != 1 || history[0][1] != "Error: Search failed: store down" {
		t.Fatalf("unexpected history: %v", history)
	}
}

func TestSendRequestTimeout(t *testing.T) {
	block := make(chan struct{})
	uri := wsServer(t, func(conn *websocket.Conn) {
		readRequest(t, conn)
		<-block // never respond
	})
	defer close(block)

	ch := NewChannel(uri, 200*time.Millisecond, 20, nil)

	_, history := ch.SendRequest("search", map[string]interface{}{"query": "slow"})
	if len(history) != 1 || history[0][1] != "Request timed out" {
		t.Fatalf("unexpected history: %v", history)
	}
	if ch.State() != StateDisconnected {
		t.Errorf("timed-out handle must be discarded, state=%s", ch.State())
	}
}

func TestSendRequestFeedbackIsHistoryNeutral(t *testing.T) {
	uri := wsServer(t, func(conn *websocket.Conn) {
		readRequest(t, conn)
		_ = conn.WriteJSON(map[string]interface{}{"result": "Feedback added successfully"})
	})

	ch := NewChannel(uri, 2*time.Second, 20, nil)
	defer ch.Disconnect()

	existing := [][]string{{"q", "a"}}
	display, history := ch.SendRequest("positive", map[string]interface{}{
		"comment": "good answer",
		"history": existing,
	})
	if display != "Feedback added successfully" {
		t.Fatalf("unexpected display: %q", display)
	}
	if len(history) != 1 {
		t.Fatalf("feedback must not grow the history, got %v", history)
	}
}

func TestSendRequestHistoryBounded(t *testing.T) {
	uri := wsServer(t, func(conn *websocket.Conn) {
		for {
			if readRequest(t, conn) == nil {
				return
			}
			if err := conn.WriteJSON(map[string]interface{}{"result": "ok"}); err != nil {
				return
			}
		}
	})

	ch := NewChannel(uri, 2*time.Second, 3, nil)
	defer ch.Disconnect()

	var history [][]string
	for i := 0; i < 5; i++ {
		_, history = ch.SendRequest("search", map[string]interface{}{
			"query":   "q",
			"history": history,
		})
	}
	if len(history) != 3 {
		t.Fatalf("history should be capped at 3 entries, got %d", len(history))
	}
}

func TestToHistoryFromJSON(t *testing.T) {
	// History arriving over the wire decodes as []interface{}.
	var decoded interface{}
	if err := json.Unmarshal([]byte(`[["q1","a1"],["q2","a2"]]`), &decoded); err != nil {
		t.Fatal(err)
	}
	got := toHistory(decoded)
	if len(got) != 2 || got[1][0] != "q2" || got[1][1] != "a2" {
		t.Fatalf("unexpected conversion: %v", got)
	}
}
