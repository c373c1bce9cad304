package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements EmbeddingProvider against the OpenAI embeddings
// API (or any endpoint speaking the same protocol).
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIProvider(apiKey string, model string) EmbeddingProvider {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}
}

func (p *OpenAIProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	resp, err := p.client.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedding: empty response")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizeVector(resp.Data[0].Embedding),
		},
	}, nil
}
