package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
)

// JinaReranker calls the Jina AI cross-encoder rerank endpoint.
type JinaReranker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaReranker(apiKey string, model string) *JinaReranker {
	if model == "" {
		model = "jina-reranker-v1-base-en"
	}
	return &JinaReranker{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/rerank",
		model:   model,
		client:  &http.Client{},
	}
}

func (r *JinaReranker) Rerank(ctx context.Context, query string, documents []string) ([]string, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var jinaResp rerankResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}

	results := jinaResp.Results
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	ordered := make([]string, 0, len(results))
	for _, res := range results {
		if res.Index >= 0 && res.Index < len(documents) {
			ordered = append(ordered, documents[res.Index])
		}
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("empty rerank results from jina api")
	}
	return ordered, nil
}
