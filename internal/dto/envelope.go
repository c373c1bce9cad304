package dto

import "encoding/json"

// Request is the client-to-server frame. Payload stays raw until the
// action is known.
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Response is the server-to-client frame. Exactly one of Result and
// Error is set on a terminal response; Type/Timestamp carry heartbeat
// pings.
type Response struct {
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Type      string `json:"type,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func ResultResponse(result string) Response {
	return Response{Result: result}
}

func ErrorResponse(message string) Response {
	return Response{Error: message}
}

func PingResponse(timestamp int64) Response {
	return Response{Type: "ping", Timestamp: timestamp}
}

// SearchPayload carries a query plus the client's rendering of the
// conversation as [question, answer] pairs.
type SearchPayload struct {
	Query   string     `json:"query"`
	History [][]string `json:"history"`
}

// FeedbackPayload carries an optional free-text comment and the turn
// the feedback targets. An empty TurnID means the most recent turn.
type FeedbackPayload struct {
	Comment string `json:"comment"`
	TurnID  string `json:"turn_id"`
}

// IngestPayload optionally narrows ingestion to specific files under
// the dataset directory.
type IngestPayload struct {
	Files []string `json:"files"`
}
