package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedbackRecorded(t *testing.T) {
	evt := NewFeedbackRecorded("abc123", 1, "helpful answer")

	assert.Equal(t, "FEEDBACK_RECORDED", evt.EventType())
	assert.False(t, evt.Timestamp().IsZero())

	payload := evt.Payload()
	assert.Equal(t, "abc123", payload["trace_id"])
	assert.Equal(t, 1, payload["score"])
	assert.Equal(t, "helpful answer", payload["comment"])
}

func TestFeedbackRecordedNegativeScore(t *testing.T) {
	evt := NewFeedbackRecorded("def456", 0, "")

	assert.Equal(t, 0, evt.Payload()["score"])
	assert.Equal(t, "", evt.Payload()["comment"])
}

func TestIngestionCompleted(t *testing.T) {
	evt := NewIngestionCompleted(3, 120)

	assert.Equal(t, "INGESTION_COMPLETED", evt.EventType())
	assert.Equal(t, 3, evt.Payload()["files"])
	assert.Equal(t, 120, evt.Payload()["passages"])
}
