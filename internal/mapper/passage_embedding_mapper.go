package mapper

import (
	"capec-chatbot-be/internal/entity"
	"capec-chatbot-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type PassageEmbeddingMapper struct{}

func NewPassageEmbeddingMapper() *PassageEmbeddingMapper {
	return &PassageEmbeddingMapper{}
}

func (m *PassageEmbeddingMapper) ToEntity(p *model.PassageEmbedding) *entity.PassageEmbedding {
	if p == nil {
		return nil
	}
	return &entity.PassageEmbedding{
		Id:             p.Id,
		SourceFile:     p.SourceFile,
		ChunkIndex:     p.ChunkIndex,
		Document:       p.Document,
		EmbeddingValue: p.EmbeddingValue.Slice(),
		CreatedAt:      p.CreatedAt,
	}
}

func (m *PassageEmbeddingMapper) ToModel(p *entity.PassageEmbedding) *model.PassageEmbedding {
	if p == nil {
		return nil
	}
	return &model.PassageEmbedding{
		Id:             p.Id,
		SourceFile:     p.SourceFile,
		ChunkIndex:     p.ChunkIndex,
		Document:       p.Document,
		EmbeddingValue: pgvector.NewVector(p.EmbeddingValue),
		CreatedAt:      p.CreatedAt,
	}
}

func (m *PassageEmbeddingMapper) ToEntities(models []*model.PassageEmbedding) []*entity.PassageEmbedding {
	entities := make([]*entity.PassageEmbedding, len(models))
	for i, p := range models {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
