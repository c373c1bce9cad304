package service

import (
	"context"
	"encoding/json"
	"fmt"

	"capec-chatbot-be/internal/dto"
	"capec-chatbot-be/internal/pkg/logger"
	"capec-chatbot-be/internal/repository/contract"
	"capec-chatbot-be/internal/telemetry"
	"capec-chatbot-be/pkg/ingest"
)

type IIngestService interface {
	// Ingest parses the dataset, queues every passage for embedding,
	// and returns a status line for the client. Re-ingesting a file
	// replaces its previous passages.
	Ingest(ctx context.Context, files []string) (string, error)
}

type ingestService struct {
	parser    *ingest.CsvParser
	publisher IPublisherService
	repo      contract.PassageEmbeddingRepository
	sink      *telemetry.FeedbackSink
	log       logger.ILogger
}

func NewIngestService(
	parser *ingest.CsvParser,
	publisher IPublisherService,
	repo contract.PassageEmbeddingRepository,
	sink *telemetry.FeedbackSink,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		parser:    parser,
		publisher: publisher,
		repo:      repo,
		sink:      sink,
		log:       log,
	}
}

func (s *ingestService) Ingest(ctx context.Context, files []string) (string, error) {
	passages, err := s.parse(files)
	if err != nil {
		return "", err
	}
	if len(passages) == 0 {
		return "", fmt.Errorf("no passages found in dataset")
	}

	// Clear stale passages once per file before queueing replacements.
	cleared := make(map[string]bool)
	for _, p := range passages {
		if cleared[p.SourceFile] {
			continue
		}
		if err := s.repo.DeleteBySourceFile(ctx, p.SourceFile); err != nil {
			return "", fmt.Errorf("clear passages for %s: %w", p.SourceFile, err)
		}
		cleared[p.SourceFile] = true
	}

	for _, p := range passages {
		payload, err := json.Marshal(dto.EmbedPassageMessage{
			SourceFile: p.SourceFile,
			ChunkIndex: p.ChunkIndex,
			Text:       p.Text,
		})
		if err != nil {
			return "", err
		}
		if err := s.publisher.Publish(ctx, payload); err != nil {
			return "", fmt.Errorf("queue passage: %w", err)
		}
	}

	s.log.Info("INGEST", "dataset queued for embedding", map[string]interface{}{
		"files":    len(cleared),
		"passages": len(passages),
	})
	s.sink.RecordIngestion(ctx, len(cleared), len(passages))

	return fmt.Sprintf("Ingestion successful: queued %d passages from %d files", len(passages), len(cleared)), nil
}

func (s *ingestService) parse(files []string) ([]ingest.Passage, error) {
	if len(files) == 0 {
		return s.parser.ParseDir()
	}
	var passages []ingest.Passage
	for _, name := range files {
		chunks, err := s.parser.ParseNamed(name)
		if err != nil {
			return nil, err
		}
		passages = append(passages, chunks...)
	}
	return passages, nil
}
