package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename   string         `gorm:"type:varchar(255);not null;index"`
	SourcePath string         `gorm:"type:varchar(500)"`
	Title      string         `gorm:"type:varchar(255)"`
	Content    string         `gorm:"type:text"`
	ChunkCount int            `gorm:"default:0"`
	Status     string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
