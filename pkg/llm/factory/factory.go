package factory

import (
	"fmt"

	"capec-chatbot-be/internal/config"
	"capec-chatbot-be/pkg/llm"
	"capec-chatbot-be/pkg/llm/groq"
	"capec-chatbot-be/pkg/llm/ollama"
)

func NewLLMProvider(cfg config.AIConfig) (llm.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.LLMModel), nil
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("groq provider requires GROQ_API_KEY")
		}
		return groq.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
