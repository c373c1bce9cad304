package rerank

import "context"

// Reranker reorders candidate passages by relevance to the query using a
// finer-grained relevance model than the vector search that produced them.
type Reranker interface {
	// Rerank returns the documents sorted most-relevant first.
	Rerank(ctx context.Context, query string, documents []string) ([]string, error)
}
