package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	Filename   string `json:"filename" validate:"required,min=1,max=255"`
	SourcePath string `json:"source_path,omitempty" validate:"max=500"`
	Title      string `json:"title,omitempty" validate:"max=255"`
	Content    string `json:"content" validate:"required,min=1"`
}

type IngestDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Status   string    `json:"status"`
}

type DocumentStatsResponse struct {
	TotalDocuments int64          `json:"total_documents"`
	UniqueSources  int64          `json:"unique_sources"`
	TotalChunks    int64          `json:"total_chunks"`
	FileTypes      map[string]int `json:"file_types"`
	LastUpdated    *time.Time     `json:"last_updated"`
}

type SourceSummaryDTO struct {
	Filename   string `json:"filename"`
	FullPath   string `json:"full_path"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

type ListSourcesResponse struct {
	TotalSources int                `json:"total_sources"`
	Sources      []SourceSummaryDTO `json:"sources"`
}

type ReindexResponse struct {
	QueuedDocuments int `json:"queued_documents"`
}

// PublishIngestDocumentMessage is the payload queued for the indexing
// worker when a document is created or its content changes.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
