package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"academic-rag-be/internal/dto"
	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"
	"academic-rag-be/internal/repository/unitofwork"
	"academic-rag-be/pkg/embedding"
	"academic-rag-be/pkg/events"
	"academic-rag-be/pkg/nats"
	"academic-rag-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunk sizing for retrieval. 1000 chars keeps each chunk well inside the
// embedding model's context; 200 chars of overlap preserves sentence
// continuity across boundaries.
const (
	chunkSize    = 1000
	chunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	natsPublisher     *nats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	natsPublisher *nats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		natsPublisher:     natsPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Indexing document %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	chunks := utils.SplitText(document.Content, chunkSize, chunkOverlap)
	log.Printf("[INFO] Document %s split into %d chunks", payload.DocumentId, len(chunks))

	var newChunks []*entity.DocumentChunk

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of document %s: %v", i, payload.DocumentId, err)
			cs.markFailed(ctx, document)
			msg.Nack()
			return
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
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks: %v", err)
		msg.Nack()
		return
	}

	if len(newChunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			log.Printf("[ERROR] Failed to create chunks: %v", err)
			msg.Nack()
			return
		}
	}

	document.Status = entity.DocumentStatusIndexed
	document.ChunkCount = len(newChunks)
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		log.Printf("[ERROR] Failed to update document status: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	if cs.natsPublisher != nil {
		event := events.NewDocumentIndexed(document.Id.String(), len(newChunks))
		if err := cs.natsPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish DOCUMENT_INDEXED event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Document indexed: %d chunks for %s", len(newChunks), document.Filename)
	msg.Ack()
}

// markFailed is best effort; the document stays pending if the update
// itself fails and the retry will correct the status either way.
func (cs *consumerService) markFailed(ctx context.Context, document *entity.Document) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	document.Status = entity.DocumentStatusFailed
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		log.Printf("[WARN] Failed to mark document %s as failed: %v", document.Id, err)
	}
}
