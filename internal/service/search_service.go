package service

import (
	"context"

	"capec-chatbot-be/internal/repository/contract"
	"capec-chatbot-be/pkg/embedding"
	"capec-chatbot-be/pkg/retrieval"
)

// searchService adapts the passage store to the retrieval pipeline:
// it embeds the query and runs similarity search against pgvector.
type searchService struct {
	repo     contract.PassageEmbeddingRepository
	embedder embedding.EmbeddingProvider
}

func NewSearchService(repo contract.PassageEmbeddingRepository, embedder embedding.EmbeddingProvider) retrieval.Retriever {
	return &searchService{repo: repo, embedder: embedder}
}

func (s *searchService) Search(ctx context.Context, query string, topK int) ([]retrieval.Passage, error) {
	vec, err := s.embedQuery(query)
	if err != nil {
		return nil, err
	}
	scored, err := s.repo.SearchSimilar(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	return toPassages(scored), nil
}

func (s *searchService) SearchByFile(ctx context.Context, query string, sourceFile string, topK int) ([]retrieval.Passage, error) {
	vec, err := s.embedQuery(query)
	if err != nil {
		return nil, err
	}
	scored, err := s.repo.SearchSimilarByFile(ctx, vec, topK, sourceFile)
	if err != nil {
		return nil, err
	}
	return toPassages(scored), nil
}

func (s *searchService) KnownFiles(ctx context.Context) ([]string, error) {
	return s.repo.DistinctSourceFiles(ctx)
}

func (s *searchService) embedQuery(query string) ([]float32, error) {
	res, err := s.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

func toPassages(scored []*contract.ScoredPassage) []retrieval.Passage {
	passages := make([]retrieval.Passage, len(scored))
	for i, s := range scored {
		passages[i] = retrieval.Passage{
			Text:       s.Passage.Document,
			SourceFile: s.Passage.SourceFile,
			Score:      float32(s.Similarity),
		}
	}
	return passages
}
