package grader

import (
	"log"

	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/retrieval"
)

const nodeName = "grading"

// Decisions a grading pass can reach.
const (
	DecisionAnswer  = "answer"
	DecisionRewrite = "rewrite"
)

// Grader partitions retrieved items into relevant and irrelevant on the
// similarity score alone. Grading must stay free of model calls: a
// per-document model judgment costs tens of seconds where the threshold
// costs nothing, and the decision must be deterministic.
type Grader struct {
	threshold  float64
	maxRetries int
	logger     *log.Logger
}

func New(threshold float64, maxRetries int, logger *log.Logger) *Grader {
	return &Grader{
		threshold:  threshold,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Grade filters items by the relevance threshold (inclusive) and decides
// the next step: answer when evidence survived, rewrite when none did and
// retries remain. With retries exhausted the decision is forced to answer
// on empty evidence, flagged as forced in the emitted grading event.
func (g *Grader) Grade(rec *trace.Recorder, query string, items []retrieval.Item, retryCount int) ([]retrieval.Item, string, bool) {
	relevant := make([]retrieval.Item, 0, len(items))
	for i, item := range items {
		if item.Similarity >= g.threshold {
			relevant = append(relevant, item)
			g.logger.Printf("[GRADER] [%d] %s (sim=%.4f) relevant", i+1, item.Source, item.Similarity)
		} else {
			g.logger.Printf("[GRADER] [%d] %s (sim=%.4f) irrelevant", i+1, item.Source, item.Similarity)
		}
	}

	decision := DecisionAnswer
	forced := false
	switch {
	case len(relevant) > 0:
	case retryCount < g.maxRetries:
		decision = DecisionRewrite
	default:
		forced = true
		g.logger.Printf("[GRADER] Retry limit reached (%d), forcing answer with no evidence for %q", retryCount, query)
	}

	g.logger.Printf("[GRADER] %d/%d relevant, decision: %s", len(relevant), len(items), decision)
	rec.Record(trace.NewGradingResult(nodeName, len(relevant), len(items), decision, forced))

	return relevant, decision, forced
}
