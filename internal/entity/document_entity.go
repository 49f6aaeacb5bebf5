package entity

import (
	"time"

	"github.com/google/uuid"
)

// Indexing status of a document.
const (
	DocumentStatusPending = "pending"
	DocumentStatusIndexed = "indexed"
	DocumentStatusFailed  = "failed"
)

type Document struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename   string
	SourcePath string
	Title      string
	Content    string
	ChunkCount int
	Status     string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
