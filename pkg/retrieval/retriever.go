package retrieval

import (
	"academic-rag-be/pkg/embedding"
	"context"
	"fmt"
)

// VectorIndex is the storage-side query surface. The implementation lives in
// the repository layer and runs the cosine-distance SQL against pgvector.
type VectorIndex interface {
	QueryNearest(ctx context.Context, vector []float32, limit int, threshold float64) ([]Item, error)
}

// Retriever implements Searcher by embedding the query and delegating the
// nearest-neighbour lookup to a VectorIndex. It over-fetches from the index
// and re-applies the threshold and cap itself so the guarantees hold even
// when the index's own filtering is looser.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	index    VectorIndex
}

func NewRetriever(embedder embedding.EmbeddingProvider, index VectorIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

var _ Searcher = &Retriever{}

func (r *Retriever) Search(ctx context.Context, query string, topK int, threshold float64) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := r.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrUnavailable, err)
	}

	// Fetch double the cap so borderline duplicates filtered below still
	// leave enough candidates to fill topK.
	candidates, err := r.index.QueryNearest(ctx, resp.Embedding.Values, topK*2, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: query index: %v", ErrUnavailable, err)
	}

	results := make([]Item, 0, topK)
	for _, item := range candidates {
		if item.Similarity < threshold {
			continue
		}
		results = append(results, item)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}
