package service

import (
	"context"
	"errors"
	"testing"

	"capec-chatbot-be/internal/session"
	"capec-chatbot-be/internal/telemetry"
	"capec-chatbot-be/pkg/chatbot"
	"capec-chatbot-be/pkg/llm"
	"capec-chatbot-be/pkg/rerank"
	"capec-chatbot-be/pkg/retrieval"
)

type stubRetriever struct {
	passages []retrieval.Passage
	err      error
}

func (s *stubRetriever) Search(_ context.Context, _ string, _ int) ([]retrieval.Passage, error) {
	return s.passages, s.err
}

func (s *stubRetriever) SearchByFile(_ context.Context, _, _ string, _ int) ([]retrieval.Passage, error) {
	return s.passages, s.err
}

func (s *stubRetriever) KnownFiles(_ context.Context) ([]string, error) {
	return nil, nil
}

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, opts...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func newTestChatService(ret *stubRetriever, model *stubLLM) IChatService {
	pipeline := retrieval.NewPipeline(ret, rerank.Noop{}, nil, 5, 2, nil)
	bot := chatbot.NewRAGChatBot(model)
	reflection := chatbot.NewReflectionModel(model)
	sink := telemetry.NewFeedbackSink(nil, nopLogger{})
	return NewChatService(pipeline, bot, reflection, sink, nopLogger{})
}

func TestSearchRecordsTurn(t *testing.T) {
	ret := &stubRetriever{passages: []retrieval.Passage{{Text: "grounding"}}}
	model := &stubLLM{reply: "the answer"}
	svc := newTestChatService(ret, model)
	sess := session.New("conn", 5, 5)

	answer, err := svc.Search(context.Background(), sess, "what is CAPEC-66?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "the answer" {
		t.Errorf("unexpected answer: %q", answer)
	}

	turn, ok := sess.LastTurn()
	if !ok {
		t.Fatal("search must record a turn")
	}
	if turn.Query != "what is CAPEC-66?" || turn.Response != "the answer" {
		t.Errorf("unexpected turn: %+v", turn)
	}
	if turn.ID == "" {
		t.Error("recorded turn needs an id for feedback targeting")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	model := &stubLLM{reply: "x"}
	svc := newTestChatService(&stubRetriever{}, model)
	sess := session.New("conn", 5, 5)

	_, err := svc.Search(context.Background(), sess, "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if model.calls != 0 {
		t.Error("blank query must not hit the model")
	}
	if _, ok := sess.LastTurn(); ok {
		t.Error("failed search must not record a turn")
	}
}

func TestSearchGenerationFailureRecordsNothing(t *testing.T) {
	svc := newTestChatService(&stubRetriever{}, &stubLLM{err: errors.New("model offline")})
	sess := session.New("conn", 5, 5)

	if _, err := svc.Search(context.Background(), sess, "q"); err == nil {
		t.Fatal("expected generation error")
	}
	if _, ok := sess.LastTurn(); ok {
		t.Error("failed generation must not record a turn")
	}
}

func TestSubmitFeedbackUpdatesGuidelines(t *testing.T) {
	model := &stubLLM{reply: "1. Keep answers short"}
	svc := newTestChatService(&stubRetriever{}, model)
	sess := session.New("conn", 5, 5)
	sess.RecordTurn(session.Turn{ID: "t1", Query: "q", Response: "a"})

	if err := svc.SubmitFeedback(context.Background(), sess, FeedbackNegative, "too long", ""); err != nil {
		t.Fatal(err)
	}

	entries := sess.FeedbackEntries()
	if len(entries) != 1 || entries[0].Polarity != FeedbackNegative || entries[0].Query != "q" {
		t.Fatalf("unexpected feedback entries: %+v", entries)
	}
	if sess.Guidelines() != "1. Keep answers short" {
		t.Errorf("guidelines not updated: %q", sess.Guidelines())
	}
}

func TestSubmitFeedbackExplicitTurn(t *testing.T) {
	svc := newTestChatService(&stubRetriever{}, &stubLLM{reply: "1. x"})
	sess := session.New("conn", 5, 5)
	sess.RecordTurn(session.Turn{ID: "t1", Query: "first q", Response: "first a"})
	sess.RecordTurn(session.Turn{ID: "t2", Query: "second q", Response: "second a"})

	if err := svc.SubmitFeedback(context.Background(), sess, FeedbackPositive, "", "t1"); err != nil {
		t.Fatal(err)
	}

	entries := sess.FeedbackEntries()
	if entries[0].Query != "first q" {
		t.Errorf("feedback should target the named turn, got %q", entries[0].Query)
	}
}

func TestSubmitFeedbackStaleTurnFallsBack(t *testing.T) {
	svc := newTestChatService(&stubRetriever{}, &stubLLM{reply: "1. x"})
	sess := session.New("conn", 5, 5)
	sess.RecordTurn(session.Turn{ID: "t1", Query: "only q", Response: "only a"})

	// The named turn has already left the window; fall back to the
	// most recent one.
	if err := svc.SubmitFeedback(context.Background(), sess, FeedbackPositive, "", "evicted"); err != nil {
		t.Fatal(err)
	}
	if entries := sess.FeedbackEntries(); entries[0].Query != "only q" {
		t.Errorf("expected fallback to last turn, got %q", entries[0].Query)
	}
}

func TestSubmitFeedbackWithoutTurns(t *testing.T) {
	svc := newTestChatService(&stubRetriever{}, &stubLLM{reply: "1. x"})
	sess := session.New("conn", 5, 5)

	err := svc.SubmitFeedback(context.Background(), sess, FeedbackPositive, "", "")
	if !errors.Is(err, ErrNoTurn) {
		t.Fatalf("expected ErrNoTurn, got %v", err)
	}
}

func TestSubmitFeedbackReflectionFailure(t *testing.T) {
	svc := newTestChatService(&stubRetriever{}, &stubLLM{err: errors.New("model offline")})
	sess := session.New("conn", 5, 5)
	sess.RecordTurn(session.Turn{ID: "t1", Query: "q", Response: "a"})

	if err := svc.SubmitFeedback(context.Background(), sess, FeedbackNegative, "", ""); err == nil {
		t.Fatal("reflection failure should propagate")
	}
	if sess.Guidelines() != session.NoGuidelines {
		t.Error("failed reflection must not change guidelines")
	}
}
