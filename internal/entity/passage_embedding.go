package entity

import (
	"time"

	"github.com/google/uuid"
)

// PassageEmbedding is one embedded chunk of a CAPEC dataset file.
type PassageEmbedding struct {
	Id             uuid.UUID
	SourceFile     string
	ChunkIndex     int
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
