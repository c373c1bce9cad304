package contract

import (
	"context"

	"capec-chatbot-be/internal/entity"
)

// ScoredPassage pairs a stored passage with its cosine similarity to
// the query vector (1.0 means identical direction).
type ScoredPassage struct {
	Passage    *entity.PassageEmbedding
	Similarity float64
}

type PassageEmbeddingRepository interface {
	Create(ctx context.Context, passage *entity.PassageEmbedding) error
	CreateBulk(ctx context.Context, passages []*entity.PassageEmbedding) error
	DeleteBySourceFile(ctx context.Context, sourceFile string) error
	// DistinctSourceFiles lists every file currently represented in the
	// store, used for filename detection in queries.
	DistinctSourceFiles(ctx context.Context) ([]string, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredPassage, error)
	SearchSimilarByFile(ctx context.Context, embedding []float32, limit int, sourceFile string) ([]*ScoredPassage, error)
}
