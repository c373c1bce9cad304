package bootstrap

import (
	"fmt"
	"log"

	"capec-chatbot-be/internal/config"
	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/repository/cache"
	"capec-chatbot-be/internal/repository/implementation"
	"capec-chatbot-be/internal/router"
	"capec-chatbot-be/internal/service"
	"capec-chatbot-be/internal/session"
	"capec-chatbot-be/internal/telemetry"
	"capec-chatbot-be/internal/websocket"
	"capec-chatbot-be/pkg/chatbot"
	"capec-chatbot-be/pkg/database"
	"capec-chatbot-be/pkg/embedding"
	"capec-chatbot-be/pkg/ingest"
	"capec-chatbot-be/pkg/llm/factory"
	pktNats "capec-chatbot-be/pkg/nats"
	"capec-chatbot-be/pkg/rerank"
	"capec-chatbot-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const openAIEmbeddingModel = "text-embedding-3-small"

// Container wires every collaborator of the chatbot service.
type Container struct {
	Logger    logger.ILogger
	DB        *gorm.DB
	Admission *websocket.Admission
	Router    *router.Router
	Consumer  service.IConsumerService

	eventPublisher *pktNats.Publisher
	contextCache   *cache.RedisContextCache
}

func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	if cfg.Database.Connection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is required")
	}
	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	passageRepo := implementation.NewPassageEmbeddingRepository(db)

	// Event bus for the ingestion path.
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// Feedback and ingestion telemetry. Optional: a dead broker only
	// costs the events.
	var eventPublisher *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		eventPublisher, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS unavailable, telemetry events disabled: %v", err)
			eventPublisher = nil
		}
	}
	sink := telemetry.NewFeedbackSink(eventPublisher, sysLogger)

	embeddingProvider := newEmbeddingProvider(cfg)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var reranker rerank.Reranker = rerank.Noop{}
	if cfg.Ai.JinaAPIKey != "" {
		reranker = rerank.NewJinaReranker(cfg.Ai.JinaAPIKey, cfg.Ai.RerankModel)
	} else {
		log.Printf("[WARN] JINA_API_KEY not set, reranking disabled")
	}

	var contextCache *cache.RedisContextCache
	var pipelineCache retrieval.ContextCache
	if cfg.App.RedisURL != "" {
		contextCache, err = cache.NewRedisContextCache(cfg.App.RedisURL, cfg.Retrieval.CacheTTL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Redis unavailable, context cache disabled: %v", err)
		} else {
			pipelineCache = contextCache
		}
	}

	retriever := service.NewSearchService(passageRepo, embeddingProvider)
	pipeline := retrieval.NewPipeline(retriever, reranker, pipelineCache,
		cfg.Retrieval.TopK, cfg.Retrieval.ContextSize, nil)

	bot := chatbot.NewRAGChatBot(llmProvider)
	reflection := chatbot.NewReflectionModel(llmProvider)

	sessions := session.NewRepository(cfg.Chat.HistoryWindow, cfg.Chat.FeedbackCapacity)
	chatService := service.NewChatService(pipeline, bot, reflection, sink, sysLogger)

	parser := ingest.NewCsvParser(cfg.Ingest.DataDir, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	publisherService := service.NewPublisherService(cfg.Ingest.TopicName, pubSub)
	ingestService := service.NewIngestService(parser, publisherService, passageRepo, sink, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Ingest.TopicName, passageRepo, embeddingProvider)

	r := router.NewRouter(chatService, ingestService, sessions, cfg.Chat.MaxGenerationWorkers, sysLogger)
	admission := websocket.NewAdmission(cfg.Websocket.MaxConnections,
		cfg.Websocket.InactivityTimeout, cfg.Websocket.SweepInterval, sysLogger)

	return &Container{
		Logger:         sysLogger,
		DB:             db,
		Admission:      admission,
		Router:         r,
		Consumer:       consumerService,
		eventPublisher: eventPublisher,
		contextCache:   contextCache,
	}, nil
}

func newEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	if cfg.Ai.EmbeddingProvider == "openai" {
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", openAIEmbeddingModel)
		return embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, openAIEmbeddingModel)
	}
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
}

// Close releases the container's long-lived resources.
func (c *Container) Close() {
	if c.eventPublisher != nil {
		c.eventPublisher.Close()
	}
	if c.contextCache != nil {
		_ = c.contextCache.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = c.Logger.Sync()
}
