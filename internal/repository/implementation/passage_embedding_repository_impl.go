package implementation

import (
	"context"

	"capec-chatbot-be/internal/entity"
	"capec-chatbot-be/internal/mapper"
	"capec-chatbot-be/internal/model"
	"capec-chatbot-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PassageEmbeddingMapper
}

func NewPassageEmbeddingRepository(db *gorm.DB) contract.PassageEmbeddingRepository {
	return &PassageEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewPassageEmbeddingMapper(),
	}
}

func (r *PassageEmbeddingRepositoryImpl) Create(ctx context.Context, passage *entity.PassageEmbedding) error {
	m := r.mapper.ToModel(passage)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*passage = *r.mapper.ToEntity(m)
	return nil
}

func (r *PassageEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, passages []*entity.PassageEmbedding) error {
	if len(passages) == 0 {
		return nil
	}
	models := make([]*model.PassageEmbedding, len(passages))
	for i, p := range passages {
		models[i] = r.mapper.ToModel(p)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}
	for i, m := range models {
		*passages[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PassageEmbeddingRepositoryImpl) DeleteBySourceFile(ctx context.Context, sourceFile string) error {
	return r.db.WithContext(ctx).
		Where("source_file = ?", sourceFile).
		Delete(&model.PassageEmbedding{}).Error
}

func (r *PassageEmbeddingRepositoryImpl) DistinctSourceFiles(ctx context.Context) ([]string, error) {
	var files []string
	err := r.db.WithContext(ctx).
		Model(&model.PassageEmbedding{}).
		Distinct("source_file").
		Order("source_file").
		Pluck("source_file", &files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *PassageEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredPassage, error) {
	return r.search(ctx, embedding, limit, "")
}

func (r *PassageEmbeddingRepositoryImpl) SearchSimilarByFile(ctx context.Context, embedding []float32, limit int, sourceFile string) ([]*contract.ScoredPassage, error) {
	return r.search(ctx, embedding, limit, sourceFile)
}

// search orders by pgvector cosine distance. Cosine distance is
// 1 - cosine_similarity, so similarity is reported as 1 - distance.
func (r *PassageEmbeddingRepositoryImpl) search(ctx context.Context, embedding []float32, limit int, sourceFile string) ([]*contract.ScoredPassage, error) {
	if limit <= 0 {
		limit = 5
	}

	type row struct {
		model.PassageEmbedding
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("passage_embeddings").
		Select("passage_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector)
	if sourceFile != "" {
		query = query.Where("source_file = ?", sourceFile)
	}
	err := query.
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPassage, len(rows))
	for i, res := range rows {
		scored[i] = &contract.ScoredPassage{
			Passage:    r.mapper.ToEntity(&res.PassageEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
