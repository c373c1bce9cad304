package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// NoGuidelines is sent to the generation model while no feedback-derived
// guidelines exist yet.
const NoGuidelines = "No guidelines provided."

// Turn is one completed query/response exchange.
type Turn struct {
	ID       string
	Query    string
	Response string
	// TraceID of the generation call that produced Response; feedback
	// telemetry is keyed by it.
	TraceID string
	At      time.Time
}

// Feedback is one user reaction to a turn, kept in a bounded FIFO buffer.
type Feedback struct {
	Polarity string // "positive" | "negative"
	Query    string
	Response string
	Comment  string
}

// GenerationRequest is the exact field set the generation collaborator
// depends on.
type GenerationRequest struct {
	Context     []string
	ChatHistory []Turn
	Guidelines  string
	Input       string
}

// Session holds the conversational state of one connection: a bounded
// window of recent turns, a bounded feedback buffer, and the guidelines
// derived from that feedback. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu          sync.Mutex
	turns       []Turn
	feedback    []Feedback
	guidelines  string
	maxTurns    int
	maxFeedback int
}

func New(id string, maxTurns, maxFeedback int) *Session {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	if maxFeedback <= 0 {
		maxFeedback = 5
	}
	return &Session{
		ID:          id,
		maxTurns:    maxTurns,
		maxFeedback: maxFeedback,
	}
}

// RecordTurn appends a turn, dropping the oldest once the window is full.
func (s *Session) RecordTurn(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, t)
	if len(s.turns) > s.maxTurns {
		s.turns = s.turns[len(s.turns)-s.maxTurns:]
	}
}

// History returns a copy of the retained turns, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastTurn returns the most recent turn, if any.
func (s *Session) LastTurn() (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// TurnByID looks up a retained turn by its identifier.
func (s *Session) TurnByID(id string) (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.turns {
		if t.ID == id {
			return t, true
		}
	}
	return Turn{}, false
}

// AddFeedback inserts a feedback record, evicting the earliest-inserted
// entry once the buffer holds maxFeedback records. Eviction is strictly
// insertion-ordered regardless of polarity; duplicates are kept.
func (s *Session) AddFeedback(f Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedback = append(s.feedback, f)
	if len(s.feedback) > s.maxFeedback {
		s.feedback = s.feedback[len(s.feedback)-s.maxFeedback:]
	}
}

// FeedbackEntries returns a copy of the buffered feedback, oldest first.
func (s *Session) FeedbackEntries() []Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out
}

// FormatFeedback renders the buffered feedback the way the reflection
// model expects it: one block per entry, positive marked ✓ and negative ✗.
func (s *Session) FormatFeedback() string {
	entries := s.FeedbackEntries()

	var b strings.Builder
	for i, f := range entries {
		mark := "✓"
		if f.Polarity == "negative" {
			mark = "✗"
		}
		fmt.Fprintf(&b, "Feedback %d:\n", i+1)
		fmt.Fprintf(&b, "Type: %s (%s)\n", f.Polarity, mark)
		fmt.Fprintf(&b, "Query: %s\n", f.Query)
		fmt.Fprintf(&b, "Response: %s\n", f.Response)
		fmt.Fprintf(&b, "Comment: %s\n\n", f.Comment)
	}
	return b.String()
}

// SetGuidelines replaces the active guidelines.
func (s *Session) SetGuidelines(g string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guidelines = g
}

// Guidelines returns the active guidelines, or NoGuidelines when none
// have been derived yet.
func (s *Session) Guidelines() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.guidelines) == "" {
		return NoGuidelines
	}
	return s.guidelines
}

// BuildGenerationRequest assembles the generation contract for a query:
// grounding context, the retained chat history, the active guidelines
// (or the explicit no-guidelines sentinel) and the query itself.
func (s *Session) BuildGenerationRequest(query string, context []string) GenerationRequest {
	return GenerationRequest{
		Context:     context,
		ChatHistory: s.History(),
		Guidelines:  s.Guidelines(),
		Input:       query,
	}
}
