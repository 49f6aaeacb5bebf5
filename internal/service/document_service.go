package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"academic-rag-be/internal/dto"
	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"
	"academic-rag-be/internal/repository/unitofwork"
	"academic-rag-be/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IDocumentService interface {
	Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Stats(ctx context.Context) (*dto.DocumentStatsResponse, error)
	ListSources(ctx context.Context) (*dto.ListSourcesResponse, error)
	Reindex(ctx context.Context) (int, error)
	ReindexSource(ctx context.Context, filename string) (*dto.IngestDocumentResponse, error)
	DeleteSource(ctx context.Context, filename string) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

// Ingest stores or replaces a document and queues it for chunking and
// embedding. Content is searchable once the indexing worker finishes.
func (ds *documentService) Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	content := utils.NormalizeWhitespace(request.Content)
	title := request.Title
	if title == "" {
		title = request.Filename
	}
	sourcePath := request.SourcePath
	if sourcePath == "" {
		sourcePath = request.Filename
	}

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByFilename{Filename: request.Filename})
	if err != nil {
		return nil, err
	}

	if document == nil {
		document = &entity.Document{
			Id:         uuid.New(),
			Filename:   request.Filename,
			SourcePath: sourcePath,
			Title:      title,
			Content:    content,
			Status:     entity.DocumentStatusPending,
			CreatedAt:  time.Now(),
		}
		if err := uow.DocumentRepository().Create(ctx, document); err != nil {
			return nil, err
		}
	} else {
		document.SourcePath = sourcePath
		document.Title = title
		document.Content = content
		document.Status = entity.DocumentStatusPending
		if err := uow.DocumentRepository().Update(ctx, document); err != nil {
			return nil, err
		}
	}

	if err := ds.queueIngest(ctx, document.Id); err != nil {
		return nil, err
	}

	return &dto.IngestDocumentResponse{
		Id:       document.Id,
		Filename: document.Filename,
		Status:   document.Status,
	}, nil
}

func (ds *documentService) Stats(ctx context.Context) (*dto.DocumentStatsResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	totalChunks, err := uow.DocumentChunkRepository().Count(ctx)
	if err != nil {
		return nil, err
	}

	fileTypes := make(map[string]int)
	var indexed int64
	var lastUpdated *time.Time
	for _, document := range documents {
		fileTypes[fileType(document.Filename)]++
		if document.Status == entity.DocumentStatusIndexed {
			indexed++
		}
		if document.UpdatedAt != nil && (lastUpdated == nil || document.UpdatedAt.After(*lastUpdated)) {
			lastUpdated = document.UpdatedAt
		}
	}

	return &dto.DocumentStatsResponse{
		TotalDocuments: int64(len(documents)),
		UniqueSources:  indexed,
		TotalChunks:    totalChunks,
		FileTypes:      fileTypes,
		LastUpdated:    lastUpdated,
	}, nil
}

func (ds *documentService) ListSources(ctx context.Context) (*dto.ListSourcesResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	sources := make([]dto.SourceSummaryDTO, 0, len(documents))
	for _, document := range documents {
		fullPath := document.SourcePath
		if fullPath == "" {
			fullPath = document.Filename
		}
		sources = append(sources, dto.SourceSummaryDTO{
			Filename:   document.Filename,
			FullPath:   fullPath,
			ChunkCount: document.ChunkCount,
			Status:     document.Status,
		})
	}

	return &dto.ListSourcesResponse{
		TotalSources: len(sources),
		Sources:      sources,
	}, nil
}

// Reindex queues every document for a fresh chunking and embedding pass.
func (ds *documentService) Reindex(ctx context.Context) (int, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, document := range documents {
		document.Status = entity.DocumentStatusPending
		if err := uow.DocumentRepository().Update(ctx, document); err != nil {
			return queued, err
		}
		if err := ds.queueIngest(ctx, document.Id); err != nil {
			return queued, err
		}
		queued++
	}

	return queued, nil
}

// ReindexSource queues a single stored source for re-embedding.
func (ds *documentService) ReindexSource(ctx context.Context, filename string) (*dto.IngestDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByFilename{Filename: filename})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("source %s: %w", filename, gorm.ErrRecordNotFound)
	}

	document.Status = entity.DocumentStatusPending
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}
	if err := ds.queueIngest(ctx, document.Id); err != nil {
		return nil, err
	}

	return &dto.IngestDocumentResponse{
		Id:       document.Id,
		Filename: document.Filename,
		Status:   document.Status,
	}, nil
}

// DeleteSource removes a source document and all of its chunks.
func (ds *documentService) DeleteSource(ctx context.Context, filename string) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByFilename{Filename: filename})
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("source %s: %w", filename, gorm.ErrRecordNotFound)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, document.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (ds *documentService) queueIngest(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{DocumentId: documentId})
	if err != nil {
		return err
	}
	return ds.publisherService.Publish(ctx, payload)
}

func fileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "unknown"
	}
	return ext
}
