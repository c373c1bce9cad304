package telemetry

import (
	"context"

	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/pkg/events"
	"capec-chatbot-be/pkg/nats"
)

// FeedbackSink records feedback outcomes keyed by the trace id of the
// generation that produced the answer. Publishing is best effort: a
// missing or failing broker never blocks the feedback exchange.
type FeedbackSink struct {
	publisher *nats.Publisher
	log       logger.ILogger
}

func NewFeedbackSink(publisher *nats.Publisher, log logger.ILogger) *FeedbackSink {
	return &FeedbackSink{publisher: publisher, log: log}
}

// Record publishes one feedback event. Score is 1 for positive
// feedback and 0 for negative.
func (s *FeedbackSink) Record(ctx context.Context, traceID string, score int, comment string) {
	if s == nil || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewFeedbackRecorded(traceID, score, comment)); err != nil {
		s.log.Warn("TELEMETRY", "feedback event publish failed", map[string]interface{}{
			"trace_id": traceID,
			"error":    err.Error(),
		})
	}
}

// RecordIngestion publishes a completion event after a dataset load.
func (s *FeedbackSink) RecordIngestion(ctx context.Context, files, passages int) {
	if s == nil || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewIngestionCompleted(files, passages)); err != nil {
		s.log.Warn("TELEMETRY", "ingestion event publish failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
