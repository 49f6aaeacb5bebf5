package ollama

import (
	"academic-rag-be/pkg/llm"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client

	// MaxAttempts bounds transport-level retries per call. The retry policy
	// lives here so the orchestration layer never retries upstreams itself.
	MaxAttempts int
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
		MaxAttempts: 2,
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// --- Interface Implementation ---

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := resolveOptions(opts)

	// Map generic messages to Ollama messages
	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		ollamaMessages[i] = ollamaMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	reqPayload := ollamaChatRequest{
		Model:    o.resolveModel(options),
		Messages: ollamaMessages,
		Stream:   false,
		Options:  buildOllamaOptions(options),
	}

	bodyBytes, err := o.post(ctx, "/api/chat", reqPayload)
	if err != nil {
		return "", err
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal chat response: %v", llm.ErrUnavailable, err)
	}

	return ollamaResp.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := resolveOptions(opts)

	reqPayload := ollamaGenerateRequest{
		Model:   o.resolveModel(options),
		Prompt:  prompt,
		Stream:  false,
		Options: buildOllamaOptions(options),
	}

	bodyBytes, err := o.post(ctx, "/api/generate", reqPayload)
	if err != nil {
		return "", err
	}

	var ollamaResp ollamaGenerateResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal generate response: %v", llm.ErrUnavailable, err)
	}

	return strings.TrimSpace(ollamaResp.Response), nil
}

func resolveOptions(opts []llm.Option) *llm.Options {
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func buildOllamaOptions(options *llm.Options) *ollamaOptions {
	out := &ollamaOptions{
		Temperature: options.Temperature,
	}
	if options.MaxTokens > 0 {
		out.NumPredict = options.MaxTokens
	}
	return out
}

func (o *OllamaProvider) resolveModel(options *llm.Options) string {
	if options.Model != "" {
		return options.Model
	}
	return o.ModelName
}

// post sends one JSON payload and returns the raw body. Transport failures
// are retried up to MaxAttempts, then wrapped in llm.ErrUnavailable so the
// caller can classify the failure without inspecting HTTP details.
func (o *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	attempts := o.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+path, bytes.NewBuffer(payloadBytes))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: ollama status %d, body: %s", llm.ErrUnavailable, resp.StatusCode, string(bodyBytes))
		}

		return bodyBytes, nil
	}

	return nil, fmt.Errorf("%w: ollama request failed after %d attempts: %v", llm.ErrUnavailable, attempts, lastErr)
}
