package factory

import (
	"academic-rag-be/pkg/llm"
	"academic-rag-be/pkg/llm/ollama"
	"fmt"
)

// NewLLMProvider builds the chat-completion backend named by LLM_PROVIDER.
// Ollama is the only backend today; the switch keeps the door open for a
// hosted provider without touching the callers.
func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
