package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type PassageEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceFile     string          `gorm:"type:text;not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (PassageEmbedding) TableName() string {
	return "passage_embeddings"
}
