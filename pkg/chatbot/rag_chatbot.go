package chatbot

import (
	"context"
	"fmt"
	"strings"

	"capec-chatbot-be/internal/constant"
	"capec-chatbot-be/internal/session"
	"capec-chatbot-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RAGChatBot turns a grounded generation request into an answer. Prompt
// assembly lives here; memory and guidelines live in the session.
type RAGChatBot struct {
	provider llm.LLMProvider
	tracer   trace.Tracer
}

func NewRAGChatBot(provider llm.LLMProvider) *RAGChatBot {
	return &RAGChatBot{
		provider: provider,
		tracer:   otel.Tracer("capec-chatbot/generation"),
	}
}

// Chat generates an answer for the request and returns it together with
// the trace id of the generation span, which feedback telemetry is keyed by.
func (b *RAGChatBot) Chat(ctx context.Context, req session.GenerationRequest) (string, string, error) {
	ctx, span := b.tracer.Start(ctx, "chatbot.generate")
	defer span.End()
	traceID := span.SpanContext().TraceID().String()

	messages := b.buildMessages(req)

	answer, err := b.provider.Chat(ctx, messages, llm.WithTemperature(0), llm.WithMaxTokens(4096))
	if err != nil {
		return "", traceID, fmt.Errorf("generation failed: %w", err)
	}

	return answer, traceID, nil
}

func (b *RAGChatBot) buildMessages(req session.GenerationRequest) []llm.Message {
	contextBlock := strings.Join(req.Context, "\n\n")

	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.ChatSystemPrompt},
		{Role: constant.ChatMessageRoleSystem, Content: constant.ChatDatasetPrompt},
		{Role: constant.ChatMessageRoleSystem, Content: constant.ChatGuidelinesPrompt},
		{Role: constant.ChatMessageRoleSystem, Content: fmt.Sprintf("Active response guidelines derived from user feedback:\n%s", req.Guidelines)},
		{Role: constant.ChatMessageRoleSystem, Content: fmt.Sprintf("%s\nContext: %s", constant.ChatTonePrompt, contextBlock)},
	}

	for _, turn := range req.ChatHistory {
		messages = append(messages,
			llm.Message{Role: constant.ChatMessageRoleUser, Content: turn.Query},
			llm.Message{Role: constant.ChatMessageRoleAssistant, Content: turn.Response},
		)
	}

	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: req.Input})
	return messages
}
