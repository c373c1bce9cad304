package rerank

import "context"

// Noop keeps the retrieval order as-is. Used when no rerank provider is
// configured.
type Noop struct{}

func (Noop) Rerank(_ context.Context, _ string, documents []string) ([]string, error) {
	return documents, nil
}
