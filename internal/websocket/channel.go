package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"capec-chatbot-be/internal/dto"
	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/router"

	"github.com/gofiber/websocket/v2"
)

const writeWait = 10 * time.Second

// frameConn is the slice of the websocket connection the channel needs.
type frameConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Channel owns one admitted connection: a read loop that dispatches
// requests serially, and a write pump that serializes responses and
// heartbeat pings onto the socket.
type Channel struct {
	id        string
	conn      frameConn
	admission *Admission
	router    *router.Router

	heartbeatInterval time.Duration
	requestTimeout    time.Duration

	send      chan dto.Response
	done      chan struct{}
	closeOnce sync.Once
	log       logger.ILogger
}

func NewChannel(
	id string,
	conn frameConn,
	admission *Admission,
	r *router.Router,
	heartbeatInterval, requestTimeout time.Duration,
	log logger.ILogger,
) *Channel {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	if requestTimeout <= 0 {
		requestTimeout = 300 * time.Second
	}
	return &Channel{
		id:                id,
		conn:              conn,
		admission:         admission,
		router:            r,
		heartbeatInterval: heartbeatInterval,
		requestTimeout:    requestTimeout,
		send:              make(chan dto.Response, 16),
		done:              make(chan struct{}),
		log:               log,
	}
}

// Serve runs the channel until the connection dies. It blocks in the
// read loop; the write pump runs alongside it.
func (c *Channel) Serve() {
	go c.writePump()
	c.readLoop()
}

// readLoop dispatches requests one at a time, preserving per-connection
// ordering.
func (c *Channel) readLoop() {
	defer c.teardown()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WEBSOCKET", "read failed", map[string]interface{}{
					"connection_id": c.id,
					"error":         err.Error(),
				})
			}
			return
		}

		c.admission.Touch(c.id)

		var req dto.Request
		if err := json.Unmarshal(data, &req); err != nil {
			if !c.enqueue(dto.ErrorResponse("Invalid message format")) {
				return
			}
			continue
		}

		// Heartbeat acknowledgements carry no response.
		if req.Action == router.ActionPong {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
		resp := c.router.Dispatch(ctx, c.id, req)
		cancel()

		if !c.enqueue(resp) {
			return
		}
	}
}

// writePump is the only goroutine that writes to the socket.
func (c *Channel) writePump() {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case resp := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(resp); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(dto.PingResponse(time.Now().Unix())); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Channel) enqueue(resp dto.Response) bool {
	select {
	case c.send <- resp:
		return true
	case <-c.done:
		return false
	}
}

func (c *Channel) teardown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.admission.Release(c.id)
	c.router.DropSession(c.id)
	c.closeConn()
	c.log.Info("WEBSOCKET", "connection closed", map[string]interface{}{
		"connection_id": c.id,
	})
}

func (c *Channel) closeConn() {
	_ = c.conn.Close()
}
