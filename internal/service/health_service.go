package service

import (
	"context"
	"time"

	"academic-rag-be/internal/dto"
	"academic-rag-be/internal/entity"
	"academic-rag-be/internal/repository/specification"
	"academic-rag-be/internal/repository/unitofwork"
	"academic-rag-be/pkg/llm"
)

type IHealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
}

type healthService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	environment string
}

func NewHealthService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	environment string,
) IHealthService {
	return &healthService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		environment: environment,
	}
}

// Check probes the model service with a minimal generation and the vector
// store with a count. A degraded report still returns 200; callers decide
// what to do with partial availability.
func (hs *healthService) Check(ctx context.Context) *dto.HealthResponse {
	llmStatus := "connected"
	if _, err := hs.llmProvider.Generate(ctx, "ping", llm.WithMaxTokens(1)); err != nil {
		llmStatus = "unavailable"
	}

	vectorstoreStatus := "connected"
	var documentsIndexed int64
	uow := hs.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.DocumentRepository().Count(ctx, specification.ByStatus{Status: entity.DocumentStatusIndexed})
	if err != nil {
		vectorstoreStatus = "unavailable"
	} else {
		documentsIndexed = count
	}

	status := "healthy"
	if llmStatus != "connected" || vectorstoreStatus != "connected" {
		status = "degraded"
	}

	return &dto.HealthResponse{
		Status:            status,
		LlmStatus:         llmStatus,
		VectorstoreStatus: vectorstoreStatus,
		DocumentsIndexed:  documentsIndexed,
		Timestamp:         time.Now(),
		Environment:       hs.environment,
	}
}
