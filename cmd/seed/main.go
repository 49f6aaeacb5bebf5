package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"academic-rag-be/internal/config"
	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"
	"academic-rag-be/internal/repository/unitofwork"
	"academic-rag-be/pkg/database"
	"academic-rag-be/pkg/embedding"
	"academic-rag-be/pkg/utils"

	"github.com/google/uuid"
)

// Seeds the vector store from a directory of plain-text course material.
// Unlike the API path this indexes synchronously: no broker is running here,
// so each file is split, embedded, and stored before moving to the next.

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

func main() {
	corpusDir := flag.String("dir", "./corpus", "directory containing .txt/.md files to index")
	force := flag.Bool("force", false, "re-index files that are already indexed")
	flag.Parse()

	log.Println("🌱 Starting corpus seeder...")

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING environment variable is required")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)

	entries, err := os.ReadDir(*corpusDir)
	if err != nil {
		log.Fatalf("Error: Failed to read corpus directory %s: %v", *corpusDir, err)
	}

	ctx := context.Background()
	indexed, skipped, failed := 0, 0, 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(*corpusDir, entry.Name())
		ok, err := seedFile(ctx, uowFactory, embedder, path, entry.Name(), *force)
		if err != nil {
			log.Printf("Error: Failed to index '%s': %v", entry.Name(), err)
			failed++
			continue
		}
		if ok {
			indexed++
		} else {
			skipped++
		}
	}

	log.Printf("✅ Seeding completed: %d indexed, %d skipped, %d failed", indexed, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func seedFile(ctx context.Context, uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, path, filename string, force bool) (bool, error) {
	uow := uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByFilename{Filename: filename})
	if err != nil {
		return false, err
	}
	if document != nil && document.Status == entity.DocumentStatusIndexed && !force {
		log.Printf("Document '%s' already indexed, skipping...", filename)
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	content := utils.NormalizeWhitespace(string(raw))

	if document == nil {
		document = &entity.Document{
			Id:         uuid.New(),
			Filename:   filename,
			SourcePath: path,
			Title:      titleFromFilename(filename),
			Content:    content,
			Status:     entity.DocumentStatusPending,
			CreatedAt:  time.Now(),
		}
		if err := uow.DocumentRepository().Create(ctx, document); err != nil {
			return false, err
		}
	} else {
		document.SourcePath = path
		document.Content = content
		document.Status = entity.DocumentStatusPending
		if err := uow.DocumentRepository().Update(ctx, document); err != nil {
			return false, err
		}
	}

	chunks := utils.SplitText(content, chunkSize, chunkOverlap)
	newChunks := make([]*entity.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := embedder.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return false, err
		}
		newChunks = append(newChunks, &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: document.Id,
			ChunkIndex: i,
			Content:    chunk,
			Embedding:  res.Embedding.Values,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return false, err
	}
	if len(newChunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			return false, err
		}
	}

	document.Status = entity.DocumentStatusIndexed
	document.ChunkCount = len(newChunks)
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return false, err
	}
	if err := uow.Commit(); err != nil {
		return false, err
	}

	log.Printf("Indexed '%s': %d chunks", filename, len(newChunks))
	return true, nil
}

func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
