package coordinator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
)

const nodeName = "coordinating"

// Routing decisions must be reproducible, so the model runs cold with a
// tight token cap.
const (
	decideTemperature = 0.0
	decideMaxTokens   = 256
)

// Queries touching these topics always go through the model, even when an
// off-topic keyword also matches.
var domainKeywords = []string{
	"artificial intelligence", "machine learning", "neural network",
	"neural networks", "deep learning", "algorithm", "model",
	"classification", "regression", "clustering", "agent", "graph",
	"heuristic", "rag", "llm", "transformer", "backpropagation",
	"gradient", "overfitting", "ai", "ml", "nlp", "cnn", "rnn", "lstm",
	"gpt", "bert", "vector", "embedding", "similarity", "retrieval",
	"generation", "supervised", "unsupervised", "reinforcement",
	"perceptron", "neuron", "activation function", "dataset", "training",
	"inference", "prediction",
}

// Queries matching these without any domain keyword are answered with a
// scope notice instead of burning a search cycle.
var outOfDomainKeywords = []string{
	"bitcoin", "ethereum", "usdt", "crypto", "cryptocurrency",
	"stock price", "exchange rate", "investment advice",
	"football", "soccer", "baseball", "world cup", "league table",
	"weather", "temperature forecast", "rain forecast",
	"recipe", "cooking", "ingredient",
	"politics", "president", "election", "government",
	"movie", "song", "singer", "actor",
}

// Coordinator is the routing step of a run: it inspects the query and the
// conversation so far and decides whether to search the corpus, answer
// directly, or ask for clarification.
type Coordinator struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func New(provider llm.LLMProvider, logger *log.Logger) *Coordinator {
	return &Coordinator{
		provider: provider,
		logger:   logger,
	}
}

// Decide produces the first routing decision of a run and records one
// thought event explaining it. Model outages propagate as errors wrapping
// llm.ErrUnavailable; unparseable model output instead degrades to a
// direct answer with the fallback noted in the thought.
func (c *Coordinator) Decide(ctx context.Context, rec *trace.Recorder, query string, history []llm.Message) (Decision, error) {
	if isOutOfDomain(query) {
		c.logger.Printf("[COORDINATOR] Out-of-domain query short-circuited: %q", query)
		d := Decision{
			Thought:     "The question falls outside the knowledge domain covered by the document base",
			Action:      ActionAnswer,
			OutOfDomain: true,
		}
		rec.Record(trace.NewThought(nodeName, d.Thought, d.Action))
		return d, nil
	}

	prompt := buildDecidePrompt(query, history)

	response, err := c.provider.Generate(ctx, prompt,
		llm.WithTemperature(decideTemperature),
		llm.WithMaxTokens(decideMaxTokens),
	)
	if err != nil {
		return Decision{}, fmt.Errorf("coordinator decide: %w", err)
	}

	d := parseReact(response)
	if d.Fallback {
		c.logger.Printf("[COORDINATOR] Unparseable model response, falling back to answer: %.120q", response)
		if d.Thought == "" {
			d.Thought = "Model response did not follow the expected format"
		}
		d.Thought += " [unrecognized action, falling back to a direct answer]"
	}

	c.logger.Printf("[COORDINATOR] Decision: %s | Thought: %.80s", d.Action, d.Thought)
	rec.Record(trace.NewThought(nodeName, d.Thought, d.Action))
	return d, nil
}

// isOutOfDomain applies the keyword gate: domain keywords win, then
// off-topic keywords reject, and everything else is left to the model.
func isOutOfDomain(query string) bool {
	lowered := strings.ToLower(query)

	for _, kw := range domainKeywords {
		if strings.Contains(lowered, kw) {
			return false
		}
	}
	for _, kw := range outOfDomainKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func buildDecidePrompt(query string, history []llm.Message) string {
	var prompt strings.Builder

	prompt.WriteString("You are the routing step of a document question answering system. Analyze and decide.\n\n")
	prompt.WriteString("ACTIONS:\n")
	prompt.WriteString("- search: look up the document base (when specific information is needed)\n")
	prompt.WriteString("- answer: reply directly (greetings, small talk, or enough context already exists)\n")
	prompt.WriteString("- clarify: ask one clarifying question (when the request is too vague to search)\n\n")
	prompt.WriteString("FORMAT (MANDATORY):\n")
	prompt.WriteString("Thought: [one short line]\n")
	prompt.WriteString("Action: [search, answer or clarify]\n")
	prompt.WriteString("Action Input: [search query, reply text or clarifying question]\n\n")

	prompt.WriteString("EXAMPLES:\n\n")
	prompt.WriteString("User: \"What is machine learning?\"\n")
	prompt.WriteString("Thought: Technical concept, I need documents.\n")
	prompt.WriteString("Action: search\n")
	prompt.WriteString("Action Input: machine learning definition fundamental concepts\n\n")
	prompt.WriteString("User: \"Hello\"\n")
	prompt.WriteString("Thought: Simple greeting, no search required.\n")
	prompt.WriteString("Action: answer\n")
	prompt.WriteString("Action Input: Hello! How can I help you?\n\n")
	prompt.WriteString("User: \"Tell me about that thing\"\n")
	prompt.WriteString("Thought: Too vague to form a search query.\n")
	prompt.WriteString("Action: clarify\n")
	prompt.WriteString("Action Input: Which topic would you like to know more about?\n")

	if len(history) > 0 {
		prompt.WriteString("\nHISTORY:\n")
		prompt.WriteString(formatHistory(history, 3))
	}

	prompt.WriteString("\nUSER: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nRespond NOW in ReAct format (3 lines):\n")

	return prompt.String()
}

// formatHistory renders the last n exchanges as plain "Role: content"
// lines for prompt context.
func formatHistory(history []llm.Message, turns int) string {
	start := len(history) - turns*2
	if start < 0 {
		start = 0
	}

	var out strings.Builder
	for _, msg := range history[start:] {
		role := "User"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "Assistant"
		}
		out.WriteString(fmt.Sprintf("%s: %s\n", role, msg.Content))
	}
	return out.String()
}
