package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"capec-chatbot-be/internal/dto"
	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/service"
	"capec-chatbot-be/internal/session"
)

const (
	ActionSearch   = "search"
	ActionIngest   = "ingest_data"
	ActionPositive = "positive"
	ActionNegative = "negative"
	ActionPong     = "pong"
)

const feedbackAddedMessage = "Feedback added successfully"

// Router maps one request frame to one terminal response frame.
// Requests on a connection are dispatched serially by the caller, so
// session access here never races with itself; the semaphore bounds
// generation work across connections.
type Router struct {
	chat     service.IChatService
	ingest   service.IIngestService
	sessions *session.Repository
	sem      chan struct{}
	log      logger.ILogger
}

func NewRouter(
	chat service.IChatService,
	ingest service.IIngestService,
	sessions *session.Repository,
	maxWorkers int,
	log logger.ILogger,
) *Router {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Router{
		chat:     chat,
		ingest:   ingest,
		sessions: sessions,
		sem:      make(chan struct{}, maxWorkers),
		log:      log,
	}
}

// Dispatch handles one request for the given connection and returns the
// response frame to write. Panics in handlers surface as error frames
// so a bad request cannot take the connection down.
func (r *Router) Dispatch(ctx context.Context, connID string, req dto.Request) (resp dto.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("ROUTER", "handler panic", map[string]interface{}{
				"connection_id": connID,
				"action":        req.Action,
				"panic":         fmt.Sprint(rec),
			})
			resp = dto.ErrorResponse("Internal server error")
		}
	}()

	if req.Action == "" {
		return dto.ErrorResponse("No action specified")
	}

	switch req.Action {
	case ActionSearch:
		return r.handleSearch(ctx, connID, req.Payload)
	case ActionIngest:
		return r.handleIngest(ctx, req.Payload)
	case ActionPositive:
		return r.handleFeedback(ctx, connID, service.FeedbackPositive, req.Payload)
	case ActionNegative:
		return r.handleFeedback(ctx, connID, service.FeedbackNegative, req.Payload)
	default:
		return dto.ErrorResponse(fmt.Sprintf("Unknown action: %s", req.Action))
	}
}

func (r *Router) handleSearch(ctx context.Context, connID string, payload json.RawMessage) dto.Response {
	var p dto.SearchPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return dto.ErrorResponse(fmt.Sprintf("Search failed: %v", err))
		}
	}

	// Fast-fail on blank queries before taking a worker slot.
	if strings.TrimSpace(p.Query) == "" {
		return dto.ErrorResponse("No query entered")
	}

	sess := r.sessions.GetOrCreate(connID)

	if err := r.acquire(ctx); err != nil {
		return dto.ErrorResponse("Search failed: server busy, request timed out")
	}
	defer r.release()

	answer, err := r.chat.Search(ctx, sess, p.Query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			return dto.ErrorResponse("No query entered")
		}
		return dto.ErrorResponse(fmt.Sprintf("Search failed: %v", err))
	}
	return dto.ResultResponse(answer)
}

func (r *Router) handleFeedback(ctx context.Context, connID, polarity string, payload json.RawMessage) dto.Response {
	var p dto.FeedbackPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return dto.ErrorResponse(fmt.Sprintf("Feedback Addition failed: %v", err))
		}
	}

	sess := r.sessions.GetOrCreate(connID)

	if err := r.acquire(ctx); err != nil {
		return dto.ErrorResponse("Feedback Addition failed: server busy, request timed out")
	}
	defer r.release()

	if err := r.chat.SubmitFeedback(ctx, sess, polarity, p.Comment, p.TurnID); err != nil {
		return dto.ErrorResponse(fmt.Sprintf("Feedback Addition failed: %v", err))
	}
	return dto.ResultResponse(feedbackAddedMessage)
}

func (r *Router) handleIngest(ctx context.Context, payload json.RawMessage) dto.Response {
	var p dto.IngestPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return dto.ErrorResponse(fmt.Sprintf("Ingestion failed: %v", err))
		}
	}

	status, err := r.ingest.Ingest(ctx, p.Files)
	if err != nil {
		return dto.ErrorResponse(fmt.Sprintf("Ingestion failed: %v", err))
	}
	return dto.ResultResponse(status)
}

// DropSession forgets the conversational state of a closed connection.
func (r *Router) DropSession(connID string) {
	r.sessions.Delete(connID)
}

func (r *Router) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) release() {
	<-r.sem
}
