package contract

import (
	"context"
	"errors"

	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrDuplicateFilename reports a unique-constraint hit on documents.filename.
// The ingest flow checks for existing documents first, so this only fires
// when two ingests of the same file race.
var ErrDuplicateFilename = errors.New("document filename already exists")

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
