package coordinator

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
)

type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDecideRoutesToSearch(t *testing.T) {
	provider := &stubProvider{
		response: "Thought: Technical concept, I need documents.\nAction: search\nAction Input: convolutional networks",
	}
	c := New(provider, testLogger())
	rec := trace.NewRecorder()

	d, err := c.Decide(context.Background(), rec, "what are CNNs?", nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Action != ActionSearch {
		t.Errorf("Action = %q, want search", d.Action)
	}
	if d.Input != "convolutional networks" {
		t.Errorf("Input = %q, want rewritten search terms", d.Input)
	}

	events := rec.Events()
	if len(events) != 1 || events[0].Kind != trace.KindThought {
		t.Fatalf("expected exactly one thought event, got %v", events)
	}
	if events[0].Action != "search" {
		t.Errorf("thought event action = %q, want search", events[0].Action)
	}
}

func TestDecideShortCircuitsOutOfDomain(t *testing.T) {
	provider := &stubProvider{response: "should never be called"}
	c := New(provider, testLogger())
	rec := trace.NewRecorder()

	d, err := c.Decide(context.Background(), rec, "what is the bitcoin price?", nil)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !d.OutOfDomain {
		t.Error("expected OutOfDomain decision")
	}
	if d.Action != ActionAnswer {
		t.Errorf("Action = %q, want answer", d.Action)
	}
	if len(provider.prompts) != 0 {
		t.Error("out-of-domain gate must not consult the model")
	}
	if events := rec.Events(); len(events) != 1 || events[0].Kind != trace.KindThought {
		t.Errorf("expected one thought event, got %v", events)
	}
}

func TestDecideFallsBackOnMalformedResponse(t *testing.T) {
	provider := &stubProvider{response: "Sure! CNNs are convolutional neural networks used for images."}
	c := New(provider, testLogger())
	rec := trace.NewRecorder()

	d, err := c.Decide(context.Background(), rec, "explain convolution layers", nil)
	if err != nil {
		t.Fatalf("malformed output must not error: %v", err)
	}
	if d.Action != ActionAnswer {
		t.Errorf("Action = %q, want the safe answer action", d.Action)
	}
	if !d.Fallback {
		t.Error("expected Fallback to be set")
	}

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("expected one thought event, got %d", len(events))
	}
	if !strings.Contains(events[0].Thought, "falling back") {
		t.Errorf("thought should note the fallback, got %q", events[0].Thought)
	}
}

func TestDecidePropagatesProviderOutage(t *testing.T) {
	provider := &stubProvider{err: llm.ErrUnavailable}
	c := New(provider, testLogger())
	rec := trace.NewRecorder()

	_, err := c.Decide(context.Background(), rec, "explain convolution layers", nil)
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("err = %v, want to wrap llm.ErrUnavailable", err)
	}
}

func TestDecidePromptCarriesHistoryAndQuery(t *testing.T) {
	provider := &stubProvider{
		response: "Thought: follow-up\nAction: answer\nAction Input: As said before, yes.",
	}
	c := New(provider, testLogger())
	rec := trace.NewRecorder()

	history := []llm.Message{
		{Role: "user", Content: "what is a perceptron?"},
		{Role: "assistant", Content: "The simplest neural unit."},
	}
	if _, err := c.Decide(context.Background(), rec, "is it still used?", history); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if len(provider.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(provider.prompts))
	}
	prompt := provider.prompts[0]
	for _, fragment := range []string{"HISTORY:", "what is a perceptron?", "USER: is it still used?"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}
