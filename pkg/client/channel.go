package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State of the connection handle. The channel never reuses a handle that
// failed: any error drains the handle so the next request dials fresh.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

const (
	defaultTimeout  = 300 * time.Second
	dialAttempts    = 3
	dialBackoffBase = 500 * time.Millisecond
)

// Channel is the UI-side counterpart of the server's session channel:
// it lazily dials, correlates one request with one terminal response,
// transparently answers heartbeat pings, and enforces the round-trip
// timeout.
type Channel struct {
	uri          string
	timeout      time.Duration
	historyLimit int

	mu     sync.Mutex // serializes requests, guards conn
	conn   *websocket.Conn
	state  atomic.Int32
	dialer *websocket.Dialer
	logger *log.Logger
}

func NewChannel(uri string, timeout time.Duration, historyLimit int, logger *log.Logger) *Channel {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Channel{
		uri:          uri,
		timeout:      timeout,
		historyLimit: historyLimit,
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:       logger,
	}
}

// State reports the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

type request struct {
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload"`
}

type response struct {
	Type      string  `json:"type,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
	Result    string  `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// SendRequest performs one request/response exchange and returns a
// display message plus the updated chat history. Failures surface as
// user-visible history entries rather than errors: the UI renders
// whatever comes back.
func (c *Channel) SendRequest(action string, payload map[string]interface{}) (string, [][]string) {
	query, _ := payload["query"].(string)
	history := toHistory(payload["history"])

	if action == "search" && strings.TrimSpace(query) == "" {
		return "", c.appendTurn(history, query, "No query entered")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnectedLocked(); err != nil {
		return "", c.appendTurn(history, query, fmt.Sprintf("Connection error: %v", err))
	}

	return c.exchangeLocked(action, payload, query, history)
}

// ensureConnectedLocked dials unless a live handle exists. Caller holds mu.
func (c *Channel) ensureConnectedLocked() error {
	if c.conn != nil {
		return nil
	}

	c.state.Store(int32(StateConnecting))

	var lastErr error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(dialBackoffBase << (attempt - 1))
		}
		conn, _, err := c.dialer.Dial(c.uri, nil)
		if err == nil {
			c.conn = conn
			c.state.Store(int32(StateConnected))
			c.logger.Printf("[CLIENT] connected to %s", c.uri)
			return nil
		}
		lastErr = err
		c.logger.Printf("[CLIENT] dial attempt %d failed: %v", attempt+1, err)
	}

	c.state.Store(int32(StateDisconnected))
	return fmt.Errorf("dial %s: %w", c.uri, lastErr)
}

// exchangeLocked writes one request and reads until a terminal response
// arrives, answering pings along the way. Caller holds mu.
func (c *Channel) exchangeLocked(action string, payload map[string]interface{}, query string, history [][]string) (string, [][]string) {
	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		c.discardLocked()
		return "", c.appendTurn(history, query, "Connection lost. Please try again.")
	}

	if err := c.conn.WriteJSON(request{Action: action, Payload: payload}); err != nil {
		c.discardLocked()
		return "", c.appendTurn(history, query, "Connection lost. Please try again.")
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.discardLocked()
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return "", c.appendTurn(history, query, "Request timed out")
			}
			return "", c.appendTurn(history, query, "Connection lost. Please try again.")
		}

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Printf("[CLIENT] discarding unparseable frame: %v", err)
			continue
		}

		// Heartbeat: acknowledge and keep waiting for the real response.
		if resp.Type == "ping" {
			ack := map[string]interface{}{"action": "pong", "timestamp": resp.Timestamp}
			if err := c.conn.WriteJSON(ack); err != nil {
				c.discardLocked()
				return "", c.appendTurn(history, query, "Connection lost. Please try again.")
			}
			continue
		}

		if resp.Error != "" {
			return "", c.appendTurn(history, query, fmt.Sprintf("Error: %s", resp.Error))
		}

		if resp.Result != "" {
			if action == "search" {
				return "", c.appendTurn(history, query, resp.Result)
			}
			// ingest_data and feedback results are history-neutral status
			// messages.
			return resp.Result, history
		}
	}
}

// Disconnect drops the handle, if any.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardLocked()
}

// discardLocked tears down the handle so the next request dials fresh.
// Caller holds mu.
func (c *Channel) discardLocked() {
	if c.conn == nil {
		c.state.Store(int32(StateDisconnected))
		return
	}
	c.state.Store(int32(StateDraining))
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = c.conn.Close()
	c.conn = nil
	c.state.Store(int32(StateDisconnected))
}

func (c *Channel) appendTurn(history [][]string, query, answer string) [][]string {
	history = append(history, []string{query, answer})
	if len(history) > c.historyLimit {
		history = history[len(history)-c.historyLimit:]
	}
	return history
}

func toHistory(v interface{}) [][]string {
	switch h := v.(type) {
	case [][]string:
		return h
	case []interface{}:
		var out [][]string
		for _, item := range h {
			pair, ok := item.([]interface{})
			if !ok || len(pair) != 2 {
				continue
			}
			q, _ := pair[0].(string)
			a, _ := pair[1].(string)
			out = append(out, []string{q, a})
		}
		return out
	default:
		return nil
	}
}
