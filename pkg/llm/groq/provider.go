package groq

import (
	"context"
	"fmt"

	"capec-chatbot-be/pkg/llm"

	openai "github.com/sashabaranov/go-openai"
)

// GroqProvider talks to the Groq API, which is OpenAI-compatible, so the
// go-openai client is pointed at the Groq base URL.
type GroqProvider struct {
	client    *openai.Client
	modelName string
}

var _ llm.LLMProvider = &GroqProvider{}

func NewGroqProvider(apiKey, baseURL, modelName string) *GroqProvider {
	conf := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		conf.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = "llama-3.1-8b-instant"
	}
	return &GroqProvider{
		client:    openai.NewClientWithConfig(conf),
		modelName: modelName,
	}
}

func (g *GroqProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0,
		MaxTokens:   4096,
	}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := g.modelName
	if options.Model != "" {
		model = options.Model
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: empty completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *GroqProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: openai.ChatMessageRoleUser, Content: prompt}}, opts...)
}
