package dto

import "time"

type HealthResponse struct {
	Status            string    `json:"status"`
	LlmStatus         string    `json:"llm_status"`
	VectorstoreStatus string    `json:"vectorstore_status"`
	DocumentsIndexed  int64     `json:"documents_indexed"`
	Timestamp         time.Time `json:"timestamp"`
	Environment       string    `json:"environment"`
}
