package implementation

import (
	"context"

	"academic-rag-be/internal/repository/contract"
	"academic-rag-be/pkg/retrieval"
)

// ChunkVectorIndex adapts the chunk repository to the retrieval layer's
// index port, hiding the storage schema from the orchestration code.
type ChunkVectorIndex struct {
	chunks contract.DocumentChunkRepository
}

func NewChunkVectorIndex(chunks contract.DocumentChunkRepository) *ChunkVectorIndex {
	return &ChunkVectorIndex{chunks: chunks}
}

var _ retrieval.VectorIndex = &ChunkVectorIndex{}

func (x *ChunkVectorIndex) QueryNearest(ctx context.Context, vector []float32, limit int, threshold float64) ([]retrieval.Item, error) {
	scored, err := x.chunks.SearchSimilarWithScore(ctx, vector, limit, threshold)
	if err != nil {
		return nil, err
	}

	items := make([]retrieval.Item, 0, len(scored))
	for _, s := range scored {
		items = append(items, retrieval.Item{
			Content:    s.Chunk.Content,
			Source:     s.Filename,
			Similarity: s.Similarity,
		})
	}
	return items, nil
}
