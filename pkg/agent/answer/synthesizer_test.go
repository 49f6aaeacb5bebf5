package answer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
	"academic-rag-be/pkg/retrieval"
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

func newTestSynthesizer(provider llm.LLMProvider) *Synthesizer {
	return NewSynthesizer(provider, log.New(io.Discard, "", 0), 0.3)
}

func TestSynthesizeGroundedAnswer(t *testing.T) {
	provider := &stubProvider{response: "CNNs use convolution layers to extract image features."}
	s := newTestSynthesizer(provider)
	rec := trace.NewRecorder()

	evidence := []retrieval.Item{
		{Content: strings.Repeat("convolution ", 40), Source: "papers/cnn_intro.pdf", Similarity: 0.81237},
		{Content: "pooling layers", Source: "dl_book.pdf", Similarity: 0.52},
	}

	text, citations, err := s.Synthesize(context.Background(), rec, Input{
		Query:    "what are CNNs?",
		Evidence: evidence,
	}, 1)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if text != "CNNs use convolution layers to extract image features." {
		t.Errorf("unexpected answer text: %q", text)
	}

	if len(citations) != 2 {
		t.Fatalf("got %d citations, want 2", len(citations))
	}
	if citations[0].Source != "cnn_intro.pdf" {
		t.Errorf("citation source = %q, want bare file name", citations[0].Source)
	}
	if citations[0].Similarity != 0.8124 {
		t.Errorf("citation similarity = %v, want 0.8124", citations[0].Similarity)
	}
	if !strings.HasSuffix(citations[0].Document, "...") {
		t.Errorf("citation excerpt should end with ellipsis: %q", citations[0].Document)
	}
	if len([]rune(citations[0].Document)) > excerptRunes+3 {
		t.Errorf("citation excerpt too long: %d runes", len([]rune(citations[0].Document)))
	}

	events := rec.Events()
	if len(events) != 1 || events[0].Kind != trace.KindFinalAnswer {
		t.Fatalf("expected one final_answer event, got %v", events)
	}
	if *events[0].TotalIterations != 1 {
		t.Errorf("total_iterations = %d, want 1", *events[0].TotalIterations)
	}
	if got := events[0].CitationList(); len(got) != 2 {
		t.Errorf("event citations = %d, want 2", len(got))
	}
}

func TestSynthesizePromptUsesAtMostThreeDocuments(t *testing.T) {
	provider := &stubProvider{response: "answer"}
	s := newTestSynthesizer(provider)

	evidence := []retrieval.Item{
		{Content: "one", Source: "1.pdf", Similarity: 0.9},
		{Content: "two", Source: "2.pdf", Similarity: 0.8},
		{Content: "three", Source: "3.pdf", Similarity: 0.7},
		{Content: "four", Source: "4.pdf", Similarity: 0.6},
	}

	_, citations, err := s.Synthesize(context.Background(), trace.NewRecorder(), Input{
		Query:    "q",
		Evidence: evidence,
	}, 0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	prompt := provider.prompts[0]
	if strings.Contains(prompt, "4.pdf") {
		t.Error("prompt should carry at most three documents")
	}
	if !strings.Contains(prompt, "3.pdf") {
		t.Error("prompt should include the third document")
	}
	// Citations still list every relevant item, not just the prompted ones.
	if len(citations) != 4 {
		t.Errorf("got %d citations, want 4", len(citations))
	}
}

func TestSynthesizeCannedPaths(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		wantText string
	}{
		{
			name:     "clarify returns the prepared question",
			in:       Input{Query: "that thing", Clarify: true, Provided: "Which topic do you mean?"},
			wantText: "Which topic do you mean?",
		},
		{
			name:     "clarify without prepared text uses default",
			in:       Input{Query: "that thing", Clarify: true},
			wantText: defaultClarification,
		},
		{
			name:     "out of domain",
			in:       Input{Query: "bitcoin price", OutOfDomain: true},
			wantText: outOfDomainMessage,
		},
		{
			name:     "forced with no evidence is honest",
			in:       Input{Query: "quantum basket weaving", Forced: true},
			wantText: noEvidenceMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{response: "model output that must not be used"}
			s := newTestSynthesizer(provider)
			rec := trace.NewRecorder()

			text, citations, err := s.Synthesize(context.Background(), rec, tt.in, 2)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if len(citations) != 0 {
				t.Errorf("canned paths must not cite, got %d citations", len(citations))
			}
			if len(provider.prompts) != 0 {
				t.Error("canned paths must not consult the model")
			}
			if events := rec.Events(); len(events) != 1 || events[0].Kind != trace.KindFinalAnswer {
				t.Errorf("expected one final_answer event, got %v", events)
			}
		})
	}
}

func TestSynthesizeConversationalUsesHistory(t *testing.T) {
	provider := &stubProvider{response: "You asked about perceptrons."}
	s := newTestSynthesizer(provider)

	history := []llm.Message{
		{Role: "user", Content: "turn one question"},
		{Role: "assistant", Content: "turn one answer"},
		{Role: "user", Content: "turn two question"},
		{Role: "assistant", Content: "turn two answer"},
		{Role: "user", Content: "turn three question"},
		{Role: "assistant", Content: "turn three answer"},
	}

	_, _, err := s.Synthesize(context.Background(), trace.NewRecorder(), Input{
		Query:   "what did I just ask?",
		History: history,
	}, 0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "turn three question") {
		t.Error("prompt should carry the most recent turns")
	}
	if strings.Contains(prompt, "turn one question") {
		t.Error("prompt should trim history to the last two turns")
	}
	if strings.Contains(prompt, "DOCUMENTS:") {
		t.Error("conversational prompt should carry no documents section")
	}
}

func TestSynthesizePropagatesProviderOutage(t *testing.T) {
	s := newTestSynthesizer(&stubProvider{err: llm.ErrUnavailable})
	rec := trace.NewRecorder()

	_, _, err := s.Synthesize(context.Background(), rec, Input{Query: "q"}, 0)
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("err = %v, want to wrap llm.ErrUnavailable", err)
	}
	if len(rec.Events()) != 0 {
		t.Error("no final_answer event should be recorded on failure")
	}
}
