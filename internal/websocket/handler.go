package websocket

import (
	"time"

	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/router"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs returns the fiber websocket handler: admit, then serve the
// connection until it dies. Each connection gets a fresh id that also
// keys its conversational session.
func ServeWs(
	admission *Admission,
	r *router.Router,
	heartbeatInterval, requestTimeout time.Duration,
	log logger.ILogger,
) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		id := uuid.NewString()
		if !admission.Admit(id, conn) {
			return
		}
		NewChannel(id, conn, admission, r, heartbeatInterval, requestTimeout, log).Serve()
	}
}
