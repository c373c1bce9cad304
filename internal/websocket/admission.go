package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"capec-chatbot-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const inactivityCloseReason = "Connection closed due to inactivity"

// closableConn is the slice of the websocket connection the admission
// gate needs.
type closableConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type admitted struct {
	conn       closableConn
	lastActive time.Time
}

// Admission enforces the connection ceiling and reaps connections that
// go quiet. The mutex here is the only state shared across connections.
type Admission struct {
	mu                sync.Mutex
	clients           map[string]*admitted
	maxConnections    int
	inactivityTimeout time.Duration
	sweepInterval     time.Duration
	log               logger.ILogger
	now               func() time.Time
}

func NewAdmission(maxConnections int, inactivityTimeout, sweepInterval time.Duration, log logger.ILogger) *Admission {
	if maxConnections <= 0 {
		maxConnections = 100
	}
	if inactivityTimeout <= 0 {
		inactivityTimeout = 300 * time.Second
	}
	if sweepInterval <= 0 {
		sweepInterval = 60 * time.Second
	}
	return &Admission{
		clients:           make(map[string]*admitted),
		maxConnections:    maxConnections,
		inactivityTimeout: inactivityTimeout,
		sweepInterval:     sweepInterval,
		log:               log,
		now:               time.Now,
	}
}

// Admit registers a new connection. At capacity the connection gets a
// policy-violation close frame and is closed; the caller must not use
// it afterwards.
func (a *Admission) Admit(id string, conn closableConn) bool {
	a.mu.Lock()
	if len(a.clients) >= a.maxConnections {
		a.mu.Unlock()
		reason := fmt.Sprintf("Server at maximum capacity (%d connections)", a.maxConnections)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
		_ = conn.Close()
		a.log.Warn("WEBSOCKET", "connection rejected at capacity", map[string]interface{}{
			"connection_id": id,
			"max":           a.maxConnections,
		})
		return false
	}
	a.clients[id] = &admitted{conn: conn, lastActive: a.now()}
	count := len(a.clients)
	a.mu.Unlock()

	a.log.Info("WEBSOCKET", "connection admitted", map[string]interface{}{
		"connection_id": id,
		"active":        count,
	})
	return true
}

// Touch marks the connection as active.
func (a *Admission) Touch(id string) {
	a.mu.Lock()
	if c, ok := a.clients[id]; ok {
		c.lastActive = a.now()
	}
	a.mu.Unlock()
}

// Release forgets a connection. Safe to call more than once.
func (a *Admission) Release(id string) {
	a.mu.Lock()
	_, ok := a.clients[id]
	delete(a.clients, id)
	a.mu.Unlock()
	if ok {
		a.log.Info("WEBSOCKET", "connection released", map[string]interface{}{
			"connection_id": id,
		})
	}
}

func (a *Admission) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.clients)
}

// Run sweeps idle connections until the context ends.
func (a *Admission) Run(ctx context.Context) {
	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

// sweep closes every connection idle past the timeout and returns the
// ids it closed. Closing makes the connection's read loop fail, which
// runs the normal cleanup path.
func (a *Admission) sweep() []string {
	cutoff := a.now().Add(-a.inactivityTimeout)

	a.mu.Lock()
	var idle []*admitted
	var ids []string
	for id, c := range a.clients {
		if c.lastActive.Before(cutoff) {
			idle = append(idle, c)
			ids = append(ids, id)
			delete(a.clients, id)
		}
	}
	a.mu.Unlock()

	for i, c := range idle {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, inactivityCloseReason))
		_ = c.conn.Close()
		a.log.Info("WEBSOCKET", "idle connection closed", map[string]interface{}{
			"connection_id": ids[i],
		})
	}
	return ids
}
