package main

import (
	"context"
	"flag"
	"log"

	"capec-chatbot-be/internal/config"
	"capec-chatbot-be/internal/entity"
	"capec-chatbot-be/internal/repository/implementation"
	"capec-chatbot-be/pkg/database"
	"capec-chatbot-be/pkg/embedding"
	"capec-chatbot-be/pkg/ingest"

	"github.com/fatih/color"
)

// Offline dataset loader: parses the CAPEC CSV exports, embeds every
// chunk, and writes them straight to the passage store without going
// through the running server.
func main() {
	dataDir := flag.String("data", "", "dataset directory (defaults to CAPEC_DATA_DIR)")
	flag.Parse()

	cfg := config.Load()
	if *dataDir != "" {
		cfg.Ingest.DataDir = *dataDir
	}

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := implementation.NewPassageEmbeddingRepository(db)

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		provider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, "text-embedding-3-small")
	} else {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
	}

	parser := ingest.NewCsvParser(cfg.Ingest.DataDir, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)

	color.Cyan("Parsing dataset from %s ...", cfg.Ingest.DataDir)
	passages, err := parser.ParseDir()
	if err != nil {
		color.Red("Parse failed: %v", err)
		return
	}
	if len(passages) == 0 {
		color.Yellow("No passages found, nothing to do")
		return
	}
	color.Cyan("Embedding %d passages ...", len(passages))

	ctx := context.Background()
	cleared := make(map[string]bool)
	stored := 0
	for _, p := range passages {
		if !cleared[p.SourceFile] {
			if err := repo.DeleteBySourceFile(ctx, p.SourceFile); err != nil {
				color.Red("Failed to clear %s: %v", p.SourceFile, err)
				return
			}
			cleared[p.SourceFile] = true
		}

		res, err := provider.Generate(p.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			color.Red("Embedding failed for %s chunk %d: %v", p.SourceFile, p.ChunkIndex, err)
			return
		}
		err = repo.Create(ctx, &entity.PassageEmbedding{
			SourceFile:     p.SourceFile,
			ChunkIndex:     p.ChunkIndex,
			Document:       p.Text,
			EmbeddingValue: res.Embedding.Values,
		})
		if err != nil {
			color.Red("Store failed for %s chunk %d: %v", p.SourceFile, p.ChunkIndex, err)
			return
		}
		stored++
		if stored%50 == 0 {
			color.White("  %d/%d", stored, len(passages))
		}
	}

	color.Green("✅ Stored %d passages from %d files", stored, len(cleared))
}
