package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Websocket WebsocketConfig
	Chat      ChatConfig
	Retrieval RetrievalConfig
	Ai        AIConfig
	Ingest    IngestConfig
}

type AppConfig struct {
	Host               string
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type WebsocketConfig struct {
	// URI the client dials, e.g. ws://rag-server:8000/ws
	URI               string `validate:"required"`
	MaxConnections    int    `validate:"min=1"`
	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration
	SweepInterval     time.Duration
	RequestTimeout    time.Duration
}

type ChatConfig struct {
	// HistoryWindow bounds the server-side conversation memory (turns).
	HistoryWindow int `validate:"min=1"`
	// ClientHistoryLimit bounds the history the UI gateway keeps.
	ClientHistoryLimit int `validate:"min=1"`
	FeedbackCapacity   int `validate:"min=1"`
	// MaxGenerationWorkers caps concurrent model calls across connections.
	MaxGenerationWorkers int `validate:"min=1"`
}

type RetrievalConfig struct {
	TopK        int `validate:"min=1"`
	ContextSize int `validate:"min=1"`
	CacheTTL    time.Duration
}

type AIConfig struct {
	EmbeddingProvider    string `validate:"oneof=ollama openai"`
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	LLMProvider          string `validate:"oneof=ollama groq"`
	LLMModel             string `validate:"required"`
	GroqAPIKey           string
	GroqBaseURL          string
	OpenAIAPIKey         string
	JinaAPIKey           string
	RerankModel          string
}

type IngestConfig struct {
	DataDir      string `validate:"required"`
	TopicName    string `validate:"required"`
	ChunkSize    int    `validate:"min=1"`
	ChunkOverlap int    `validate:"min=0"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Host:               getEnv("APP_HOST", "0.0.0.0"),
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "capec-chatbot.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:7860"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Websocket: WebsocketConfig{
			URI:               getEnv("WEBSOCKET_URI", "ws://rag-server:8000/ws"),
			MaxConnections:    getEnvAsInt("MAX_CONNECTIONS", 100),
			HeartbeatInterval: getEnvAsSeconds("HEARTBEAT_INTERVAL", 30*time.Second),
			InactivityTimeout: getEnvAsSeconds("INACTIVITY_TIMEOUT", 300*time.Second),
			SweepInterval:     getEnvAsSeconds("SWEEP_INTERVAL", 60*time.Second),
			RequestTimeout:    getEnvAsSeconds("WEBSOCKET_TIMEOUT", 300*time.Second),
		},
		Chat: ChatConfig{
			HistoryWindow:        getEnvAsInt("CHAT_HISTORY_WINDOW", 5),
			ClientHistoryLimit:   getEnvAsInt("MAX_CHAT_HISTORY", 20),
			FeedbackCapacity:     getEnvAsInt("FEEDBACK_CAPACITY", 5),
			MaxGenerationWorkers: getEnvAsInt("MAX_GENERATION_WORKERS", 8),
		},
		Retrieval: RetrievalConfig{
			TopK:        getEnvAsInt("RETRIEVAL_TOP_K", 5),
			ContextSize: getEnvAsInt("RETRIEVAL_CONTEXT_SIZE", 2),
			CacheTTL:    getEnvAsSeconds("RETRIEVAL_CACHE_TTL", 5*time.Minute),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:          getEnv("LLM_PROVIDER", "groq"),
			LLMModel:             getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			GroqAPIKey:           getEnv("GROQ_API_KEY", ""),
			GroqBaseURL:          getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
			JinaAPIKey:           getEnv("JINA_API_KEY", ""),
			RerankModel:          getEnv("RERANK_MODEL", "jina-reranker-v1-base-en"),
		},
		Ingest: IngestConfig{
			DataDir:      getEnv("CAPEC_DATA_DIR", "./capec-dataset"),
			TopicName:    getEnv("EMBED_PASSAGE_TOPIC_NAME", "EMBED_PASSAGE"),
			ChunkSize:    getEnvAsInt("INGEST_CHUNK_SIZE", 1200),
			ChunkOverlap: getEnvAsInt("INGEST_CHUNK_OVERLAP", 200),
		},
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsSeconds reads an integer number of seconds.
func getEnvAsSeconds(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(value) * time.Second
	}
	return fallback
}
