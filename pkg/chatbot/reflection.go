package chatbot

import (
	"context"
	"fmt"
	"strings"

	"capec-chatbot-be/internal/constant"
	"capec-chatbot-be/pkg/llm"
)

// ReflectionModel distills buffered user feedback into at most three
// numbered recommendations that steer subsequent generations.
type ReflectionModel struct {
	provider llm.LLMProvider
}

func NewReflectionModel(provider llm.LLMProvider) *ReflectionModel {
	return &ReflectionModel{provider: provider}
}

// GenerateRecommendations returns the updated guidelines text for the
// given formatted feedback.
func (m *ReflectionModel) GenerateRecommendations(ctx context.Context, feedback string) (string, error) {
	if strings.TrimSpace(feedback) == "" {
		return "", nil
	}

	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.ReflectionSystemPrompt},
		{Role: constant.ChatMessageRoleSystem, Content: constant.ReflectionPrinciplesPrompt},
		{Role: constant.ChatMessageRoleSystem, Content: fmt.Sprintf(constant.ReflectionTaskPrompt, feedback)},
	}

	out, err := m.provider.Chat(ctx, messages, llm.WithTemperature(0), llm.WithMaxTokens(4096))
	if err != nil {
		return "", fmt.Errorf("reflection failed: %w", err)
	}

	// The prompt ends with "1." so the model continues the list.
	out = strings.TrimSpace(out)
	if out != "" && !strings.HasPrefix(out, "1.") {
		out = "1. " + out
	}
	return out, nil
}
