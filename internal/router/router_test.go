package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"capec-chatbot-be/internal/dto"
	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/service"
	"capec-chatbot-be/internal/session"
)

type fakeChatService struct {
	searchCalls   int
	searchAnswer  string
	searchErr     error
	feedbackCalls int
	feedbackErr   error
	gotPolarity   string
	gotComment    string
	gotTurnID     string
}

func (f *fakeChatService) Search(_ context.Context, _ *session.Session, query string) (string, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return f.searchAnswer, nil
}

func (f *fakeChatService) SubmitFeedback(_ context.Context, _ *session.Session, polarity, comment, turnID string) error {
	f.feedbackCalls++
	f.gotPolarity = polarity
	f.gotComment = comment
	f.gotTurnID = turnID
	return f.feedbackErr
}

type fakeIngestService struct {
	status string
	err    error
}

func (f *fakeIngestService) Ingest(_ context.Context, _ []string) (string, error) {
	return f.status, f.err
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

var _ logger.ILogger = nopLogger{}

func newTestRouter(chat *fakeChatService, ing *fakeIngestService) *Router {
	return NewRouter(chat, ing, session.NewRepository(5, 5), 2, nopLogger{})
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDispatchNoAction(t *testing.T) {
	r := newTestRouter(&fakeChatService{}, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{})
	if resp.Error != "No action specified" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	r := newTestRouter(&fakeChatService{}, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{Action: "frobnicate"})
	if resp.Error != "Unknown action: frobnicate" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestDispatchSearchEmptyQuery(t *testing.T) {
	chat := &fakeChatService{}
	r := newTestRouter(chat, &fakeIngestService{})

	for _, query := range []string{"", "   ", "\n\t"} {
		resp := r.Dispatch(context.Background(), "conn", dto.Request{
			Action:  ActionSearch,
			Payload: rawPayload(t, dto.SearchPayload{Query: query}),
		})
		if resp.Error != "No query entered" {
			t.Errorf("query %q: unexpected error %q", query, resp.Error)
		}
	}
	if chat.searchCalls != 0 {
		t.Errorf("blank queries must not reach the chat service, got %d calls", chat.searchCalls)
	}
}

func TestDispatchSearchSuccess(t *testing.T) {
	chat := &fakeChatService{searchAnswer: "CAPEC-66 is SQL injection."}
	r := newTestRouter(chat, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{
		Action:  ActionSearch,
		Payload: rawPayload(t, dto.SearchPayload{Query: "what is CAPEC-66?"}),
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
	if resp.Result != "CAPEC-66 is SQL injection." {
		t.Fatalf("unexpected result: %q", resp.Result)
	}
}

func TestDispatchSearchFailure(t *testing.T) {
	chat := &fakeChatService{searchErr: errors.New("backend exploded")}
	r := newTestRouter(chat, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{
		Action:  ActionSearch,
		Payload: rawPayload(t, dto.SearchPayload{Query: "boom"}),
	})
	if resp.Error != "Search failed: backend exploded" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestDispatchFeedback(t *testing.T) {
	chat := &fakeChatService{}
	r := newTestRouter(chat, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{
		Action:  ActionPositive,
		Payload: rawPayload(t, dto.FeedbackPayload{Comment: "great", TurnID: "turn-1"}),
	})
	if resp.Result != "Feedback added successfully" {
		t.Fatalf("unexpected result: %q", resp.Result)
	}
	if chat.gotPolarity != service.FeedbackPositive || chat.gotComment != "great" || chat.gotTurnID != "turn-1" {
		t.Fatalf("feedback not forwarded: %+v", chat)
	}

	resp = r.Dispatch(context.Background(), "conn", dto.Request{Action: ActionNegative})
	if resp.Result != "Feedback added successfully" {
		t.Fatalf("negative feedback without payload should still work, got %q", resp.Error)
	}
	if chat.gotPolarity != service.FeedbackNegative {
		t.Fatalf("unexpected polarity: %q", chat.gotPolarity)
	}
}

func TestDispatchFeedbackFailure(t *testing.T) {
	chat := &fakeChatService{feedbackErr: errors.New("no conversation turn to attach feedback to")}
	r := newTestRouter(chat, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{Action: ActionPositive})
	if resp.Error != "Feedback Addition failed: no conversation turn to attach feedback to" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestDispatchIngest(t *testing.T) {
	r := newTestRouter(&fakeChatService{}, &fakeIngestService{
		status: "Ingestion successful: queued 12 passages from 3 files",
	})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{Action: ActionIngest})
	if resp.Result != "Ingestion successful: queued 12 passages from 3 files" {
		t.Fatalf("unexpected result: %q", resp.Result)
	}
}

func TestDispatchMalformedPayload(t *testing.T) {
	chat := &fakeChatService{}
	r := newTestRouter(chat, &fakeIngestService{})

	resp := r.Dispatch(context.Background(), "conn", dto.Request{
		Action:  ActionSearch,
		Payload: json.RawMessage(`{"query": 42}`),
	})
	if resp.Error == "" {
		t.Fatal("malformed payload should produce an error frame")
	}
	if chat.searchCalls != 0 {
		t.Error("malformed payload must not reach the chat service")
	}
}

// blockingChatService holds the single worker slot until released.
type blockingChatService struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingChatService) Search(_ context.Context, _ *session.Session, _ string) (string, error) {
	close(b.started)
	<-b.release
	return "done", nil
}

func (b *blockingChatService) SubmitFeedback(context.Context, *session.Session, string, string, string) error {
	return nil
}

func TestDispatchReportsBusyWhenWorkersSaturated(t *testing.T) {
	chat := &blockingChatService{started: make(chan struct{}), release: make(chan struct{})}
	r := NewRouter(chat, &fakeIngestService{}, session.NewRepository(5, 5), 1, nopLogger{})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		r.Dispatch(context.Background(), "conn-a", dto.Request{
			Action:  ActionSearch,
			Payload: json.RawMessage(`{"query": "first"}`),
		})
	}()
	<-chat.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp := r.Dispatch(ctx, "conn-b", dto.Request{
		Action:  ActionSearch,
		Payload: json.RawMessage(`{"query": "second"}`),
	})
	if resp.Error != "Search failed: server busy, request timed out" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}

	fbCtx, fbCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer fbCancel()

	resp = r.Dispatch(fbCtx, "conn-b", dto.Request{
		Action:  ActionPositive,
		Payload: json.RawMessage(`{"comment": "good"}`),
	})
	if resp.Error != "Feedback Addition failed: server busy, request timed out" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}

	close(chat.release)
	<-firstDone
}
