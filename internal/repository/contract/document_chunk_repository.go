package contract

import (
	"context"

	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps a DocumentChunk with its cosine similarity against a
// query vector and the filename of the owning document.
type ScoredChunk struct {
	Chunk      *entity.DocumentChunk
	Filename   string
	Similarity float64 // cosine similarity, 1.0 = identical; negatives possible
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns chunks with their similarity scores,
	// filtered by threshold and ordered most similar first.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredChunk, error)
}
