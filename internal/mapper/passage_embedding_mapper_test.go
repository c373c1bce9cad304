package mapper

import (
	"testing"

	"capec-chatbot-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassageEmbeddingRoundTrip(t *testing.T) {
	m := NewPassageEmbeddingMapper()

	e := &entity.PassageEmbedding{
		Id:             uuid.New(),
		SourceFile:     "333.csv",
		ChunkIndex:     4,
		Document:       "ID: 66\nName: SQL Injection",
		EmbeddingValue: []float32{0.1, 0.2, 0.3},
	}

	model := m.ToModel(e)
	require.NotNil(t, model)
	assert.Equal(t, e.Id, model.Id)
	assert.Equal(t, e.SourceFile, model.SourceFile)
	assert.Equal(t, e.ChunkIndex, model.ChunkIndex)

	back := m.ToEntity(model)
	require.NotNil(t, back)
	assert.Equal(t, e.Document, back.Document)
	assert.Equal(t, e.EmbeddingValue, back.EmbeddingValue)
}

func TestPassageEmbeddingNilSafety(t *testing.T) {
	m := NewPassageEmbeddingMapper()
	assert.Nil(t, m.ToModel(nil))
	assert.Nil(t, m.ToEntity(nil))
}
