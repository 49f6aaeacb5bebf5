package rewriter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
)

const nodeName = "rewriting"

// Some temperature helps the model leave the failed phrasing behind.
const (
	rewriteTemperature = 0.5
	rewriteMaxTokens   = 256
)

// Rewriter reformulates a query whose search produced no relevant
// evidence, trading the user's phrasing for search-friendly terms.
type Rewriter struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func New(provider llm.LLMProvider, logger *log.Logger) *Rewriter {
	return &Rewriter{
		provider: provider,
		logger:   logger,
	}
}

// Rewrite produces a new search string different from failedQuery and
// records one rewrite event. The result is guaranteed to differ from the
// failed query: when the model parrots it back or returns nothing, a
// keyword expansion of the failed query is used instead.
func (r *Rewriter) Rewrite(ctx context.Context, rec *trace.Recorder, originalQuery, failedQuery string) (string, error) {
	prompt := buildRewritePrompt(originalQuery, failedQuery)

	response, err := r.provider.Generate(ctx, prompt,
		llm.WithTemperature(rewriteTemperature),
		llm.WithMaxTokens(rewriteMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	rewritten := cleanRewrite(response)
	if rewritten == "" || strings.EqualFold(rewritten, failedQuery) {
		rewritten = strings.TrimSpace(failedQuery + " definition key concepts")
		r.logger.Printf("[REWRITER] Model returned nothing usable, expanding instead: %q", rewritten)
	}

	r.logger.Printf("[REWRITER] %q -> %q", failedQuery, rewritten)
	rec.Record(trace.NewRewrite(nodeName, originalQuery, rewritten))

	return rewritten, nil
}

// cleanRewrite strips the quotes and trailing punctuation models like to
// wrap queries in, keeping only the first non-empty line.
func cleanRewrite(response string) string {
	response = strings.TrimSpace(response)
	if idx := strings.IndexByte(response, '\n'); idx >= 0 {
		response = response[:idx]
	}
	response = strings.Trim(response, `"'`)
	response = strings.TrimRight(response, ".")
	return strings.TrimSpace(response)
}

func buildRewritePrompt(originalQuery, failedQuery string) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert at reformulating queries for semantic search over academic documents.\n\n")
	prompt.WriteString("STRATEGIES:\n")
	prompt.WriteString("1. Expand concepts: add synonyms or related terms\n")
	prompt.WriteString("2. Simplify: remove ambiguity and filler words\n")
	prompt.WriteString("3. Specify: add relevant technical context\n")
	prompt.WriteString("4. Keywordize: turn questions into search terms\n\n")
	prompt.WriteString("EXAMPLES:\n")
	prompt.WriteString("Original: \"How does that work?\"\n")
	prompt.WriteString("Rewritten: machine learning algorithms working principles basics\n\n")
	prompt.WriteString("Original: \"Explain neural networks to me\"\n")
	prompt.WriteString("Rewritten: neural networks architecture layers neurons deep learning\n\n")
	prompt.WriteString("Original: \"AI in medicine\"\n")
	prompt.WriteString("Rewritten: artificial intelligence medical applications diagnosis treatment\n\n")
	prompt.WriteString("RULES:\n")
	prompt.WriteString("- Prefer technical, specific terms\n")
	prompt.WriteString("- Drop filler words (\"please\", \"thanks\")\n")
	prompt.WriteString("- Turn questions into statements or keywords\n")
	prompt.WriteString("- At most 10-15 words\n\n")
	prompt.WriteString("ORIGINAL QUERY:\n")
	prompt.WriteString(originalQuery)
	prompt.WriteString("\n\nPREVIOUS QUERY (did not work):\n")
	prompt.WriteString(failedQuery)
	prompt.WriteString("\n\nYOUR REWRITTEN QUERY\nWrite ONLY the new query, no explanations:\n")

	return prompt.String()
}
