package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/session"
	"capec-chatbot-be/internal/telemetry"
	"capec-chatbot-be/pkg/chatbot"
	"capec-chatbot-be/pkg/retrieval"

	"github.com/google/uuid"
)

var (
	// ErrEmptyQuery is returned before any retrieval work happens.
	ErrEmptyQuery = errors.New("no query entered")
	// ErrNoTurn means feedback arrived before any answer was produced.
	ErrNoTurn = errors.New("no conversation turn to attach feedback to")
)

const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

type IChatService interface {
	// Search answers a query grounded in retrieved passages and records
	// the turn on the session.
	Search(ctx context.Context, sess *session.Session, query string) (string, error)
	// SubmitFeedback attaches feedback to a turn, recomputes the
	// session guidelines, and emits a telemetry event.
	SubmitFeedback(ctx context.Context, sess *session.Session, polarity, comment, turnID string) error
}

type chatService struct {
	pipeline   *retrieval.Pipeline
	bot        *chatbot.RAGChatBot
	reflection *chatbot.ReflectionModel
	sink       *telemetry.FeedbackSink
	log        logger.ILogger
}

func NewChatService(
	pipeline *retrieval.Pipeline,
	bot *chatbot.RAGChatBot,
	reflection *chatbot.ReflectionModel,
	sink *telemetry.FeedbackSink,
	log logger.ILogger,
) IChatService {
	return &chatService{
		pipeline:   pipeline,
		bot:        bot,
		reflection: reflection,
		sink:       sink,
		log:        log,
	}
}

func (s *chatService) Search(ctx context.Context, sess *session.Session, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	passages, err := s.pipeline.Context(ctx, query)
	if err != nil {
		return "", err
	}

	req := sess.BuildGenerationRequest(query, passages)
	answer, traceID, err := s.bot.Chat(ctx, req)
	if err != nil {
		return "", err
	}

	sess.RecordTurn(session.Turn{
		ID:       uuid.NewString(),
		Query:    query,
		Response: answer,
		TraceID:  traceID,
		At:       time.Now(),
	})

	s.log.Info("CHAT", "search answered", map[string]interface{}{
		"session_id": sess.ID,
		"trace_id":   traceID,
		"passages":   len(passages),
	})
	return answer, nil
}

func (s *chatService) SubmitFeedback(ctx context.Context, sess *session.Session, polarity, comment, turnID string) error {
	turn, ok := s.resolveTurn(sess, turnID)
	if !ok {
		return ErrNoTurn
	}

	sess.AddFeedback(session.Feedback{
		Polarity: polarity,
		Query:    turn.Query,
		Response: turn.Response,
		Comment:  comment,
	})

	// Guidelines are recomputed synchronously so the very next search
	// already reflects this feedback.
	guidelines, err := s.reflection.GenerateRecommendations(ctx, sess.FormatFeedback())
	if err != nil {
		return err
	}
	sess.SetGuidelines(guidelines)

	score := 0
	if polarity == FeedbackPositive {
		score = 1
	}
	s.sink.Record(ctx, turn.TraceID, score, comment)

	s.log.Info("CHAT", "feedback recorded", map[string]interface{}{
		"session_id": sess.ID,
		"polarity":   polarity,
		"turn_id":    turn.ID,
	})
	return nil
}

// resolveTurn honors an explicit turn id and falls back to the most
// recent turn when the id is absent or stale.
func (s *chatService) resolveTurn(sess *session.Session, turnID string) (session.Turn, bool) {
	if turnID != "" {
		if turn, ok := sess.TurnByID(turnID); ok {
			return turn, true
		}
	}
	return sess.LastTurn()
}
