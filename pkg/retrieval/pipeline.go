package retrieval

import (
	"context"
	"fmt"
	"log"

	"capec-chatbot-be/pkg/rerank"
)

// Passage is one retrieved chunk of dataset text.
type Passage struct {
	Text       string
	SourceFile string
	Score      float32
}

// Retriever is the vector-store collaborator.
type Retriever interface {
	// Search runs an unfiltered top-K similarity search.
	Search(ctx context.Context, query string, topK int) ([]Passage, error)
	// SearchByFile restricts the search to passages from one dataset file.
	SearchByFile(ctx context.Context, query string, sourceFile string, topK int) ([]Passage, error)
	// KnownFiles lists the dataset filenames present in the store.
	KnownFiles(ctx context.Context) ([]string, error)
}

// ContextCache is an optional cache of query -> context. A nil cache
// disables caching.
type ContextCache interface {
	Get(ctx context.Context, query string) ([]string, bool)
	Set(ctx context.Context, query string, passages []string)
}

// Pipeline builds the grounding context for a query: filename-scoped
// lookup first, unfiltered top-K fallback, rerank, truncate. The
// ordering is a precision/latency trade-off and is fixed.
type Pipeline struct {
	retriever   Retriever
	reranker    rerank.Reranker
	cache       ContextCache
	topK        int
	contextSize int
	logger      *log.Logger
}

func NewPipeline(retriever Retriever, reranker rerank.Reranker, cache ContextCache, topK, contextSize int, logger *log.Logger) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	if contextSize <= 0 {
		contextSize = 2
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		retriever:   retriever,
		reranker:    reranker,
		cache:       cache,
		topK:        topK,
		contextSize: contextSize,
		logger:      logger,
	}
}

// Context returns the grounding passages for a query, most relevant
// first, truncated to the configured context size.
func (p *Pipeline) Context(ctx context.Context, query string) ([]string, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, query); ok {
			p.logger.Printf("[RETRIEVAL] cache hit")
			return cached, nil
		}
	}

	passages, err := p.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return nil, nil
	}

	docs := make([]string, len(passages))
	for i, passage := range passages {
		docs[i] = passage.Text
	}

	reranked, err := p.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	if len(reranked) > p.contextSize {
		reranked = reranked[:p.contextSize]
	}

	if p.cache != nil {
		p.cache.Set(ctx, query, reranked)
	}
	return reranked, nil
}

func (p *Pipeline) retrieve(ctx context.Context, query string) ([]Passage, error) {
	knownFiles, err := p.retriever.KnownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dataset files: %w", err)
	}

	if filename := FindFileNames(query, knownFiles); filename != "" {
		p.logger.Printf("[RETRIEVAL] searching scoped to %s", filename)
		passages, err := p.retriever.SearchByFile(ctx, query, filename, p.topK)
		if err != nil {
			return nil, fmt.Errorf("filtered search: %w", err)
		}
		if len(passages) > 0 {
			return passages, nil
		}
		p.logger.Printf("[RETRIEVAL] no hits in %s, falling back to unfiltered search", filename)
	}

	passages, err := p.retriever.Search(ctx, query, p.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return passages, nil
}
