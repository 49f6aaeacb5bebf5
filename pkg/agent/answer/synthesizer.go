package answer

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
	"academic-rag-be/pkg/retrieval"
)

const nodeName = "answering"

const (
	synthesizeMaxTokens = 512

	// How much of each document reaches the prompt and the citations.
	promptDocLimit = 3
	excerptRunes   = 300
	historyTurns   = 2
)

// Canned terminal responses. These paths never consult the model: honesty
// about missing evidence must not depend on model cooperation.
const (
	outOfDomainMessage = "Sorry, I don't have information about that topic in my knowledge base. " +
		"My domain is limited to artificial intelligence, machine learning, neural networks " +
		"and intelligent agents. Can I help you with one of those topics?"

	noEvidenceMessage = "I couldn't find information about this in the indexed documents. " +
		"Try rephrasing your question or asking about another topic covered by the document base."

	defaultClarification = "Could you be more specific about what you would like to know?"
)

// Input describes one answering request. At most one of Clarify,
// OutOfDomain and Forced is set; when none is, the synthesizer answers
// from the evidence (grounded) or from the conversation alone.
type Input struct {
	Query    string
	History  []llm.Message
	Evidence []retrieval.Item

	Clarify     bool
	OutOfDomain bool
	Forced      bool

	// Provided carries the coordinator's prepared text, the clarifying
	// question on clarify-routed calls.
	Provided string
}

// Synthesizer produces the final user-facing answer and its citations.
type Synthesizer struct {
	provider    llm.LLMProvider
	logger      *log.Logger
	temperature float64
}

func NewSynthesizer(provider llm.LLMProvider, logger *log.Logger, temperature float64) *Synthesizer {
	return &Synthesizer{
		provider:    provider,
		logger:      logger,
		temperature: temperature,
	}
}

// Synthesize resolves the answer text for one run and records the
// final_answer event. Citations always mirror the evidence the answer was
// grounded on; the canned paths carry none.
func (s *Synthesizer) Synthesize(ctx context.Context, rec *trace.Recorder, in Input, totalIterations int) (string, []trace.Citation, error) {
	var text string

	switch {
	case in.Clarify:
		text = in.Provided
		if text == "" {
			text = defaultClarification
		}
		s.logger.Printf("[ANSWER] Clarification requested")

	case in.OutOfDomain:
		text = outOfDomainMessage
		s.logger.Printf("[ANSWER] Out-of-domain response")

	case in.Forced && len(in.Evidence) == 0:
		text = noEvidenceMessage
		s.logger.Printf("[ANSWER] Retry limit exhausted without evidence, honest no-information response")

	default:
		prompt := buildAnswerPrompt(in.Query, in.History, in.Evidence)
		response, err := s.provider.Generate(ctx, prompt,
			llm.WithTemperature(s.temperature),
			llm.WithMaxTokens(synthesizeMaxTokens),
		)
		if err != nil {
			return "", nil, fmt.Errorf("synthesize answer: %w", err)
		}
		text = strings.TrimSpace(response)
		s.logger.Printf("[ANSWER] Generated %d characters from %d documents", len(text), len(in.Evidence))
	}

	citations := citationsFrom(in.Evidence)
	rec.Record(trace.NewFinalAnswer(nodeName, text, citations, totalIterations))

	return text, citations, nil
}

func buildAnswerPrompt(query string, history []llm.Message, evidence []retrieval.Item) string {
	var prompt strings.Builder

	prompt.WriteString("Answer CONCISELY (max 150 words).\n\n")

	if len(history) > 0 {
		prompt.WriteString("HISTORY:\n")
		start := len(history) - historyTurns*2
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			role := "User"
			if msg.Role == "assistant" || msg.Role == "model" {
				role = "Assistant"
			}
			prompt.WriteString(fmt.Sprintf("%s: %s\n", role, msg.Content))
		}
		prompt.WriteString("\n")
	}

	if len(evidence) > 0 {
		prompt.WriteString("DOCUMENTS:\n")
		for i, item := range evidence {
			if i == promptDocLimit {
				break
			}
			prompt.WriteString(fmt.Sprintf("[%d] %s: %s...\n\n", i+1, item.SourceName(), excerpt(item.Content, excerptRunes)))
		}
	}

	prompt.WriteString("QUESTION: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nRULES:\n")
	prompt.WriteString("- Use the history to resolve references (\"that\", \"it\")\n")
	prompt.WriteString("- Only state facts found in the documents when documents are given, and cite their sources\n")
	prompt.WriteString("- Answer with plain text, no excessive formatting\n\n")
	prompt.WriteString("ANSWER:\n")

	return prompt.String()
}

// citationsFrom maps evidence into the citation shape exposed to users:
// bounded excerpt, bare file name, similarity at four decimals.
func citationsFrom(evidence []retrieval.Item) []trace.Citation {
	citations := make([]trace.Citation, 0, len(evidence))
	for _, item := range evidence {
		citations = append(citations, trace.Citation{
			Document:   excerpt(item.Content, excerptRunes) + "...",
			Source:     item.SourceName(),
			Similarity: math.Round(item.Similarity*10000) / 10000,
		})
	}
	return citations
}

// excerpt truncates by runes so multibyte content never gets split
// mid-character.
func excerpt(content string, limit int) string {
	runes := []rune(content)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
