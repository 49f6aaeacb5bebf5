package service

import (
	"strings"
	"testing"

	"academic-rag-be/pkg/agent/trace"
)

func TestConversationTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "short message unchanged",
			message: "What is a B-tree?",
			want:    "What is a B-tree?",
		},
		{
			name:    "surrounding whitespace trimmed",
			message: "  explain dijkstra  ",
			want:    "explain dijkstra",
		},
		{
			name:    "long message truncated with ellipsis",
			message: strings.Repeat("a", 120),
			want:    strings.Repeat("a", 80) + "...",
		},
		{
			name:    "exactly eighty runes untouched",
			message: strings.Repeat("b", 80),
			want:    strings.Repeat("b", 80),
		},
		{
			name:    "multibyte runes counted as runes not bytes",
			message: strings.Repeat("é", 90),
			want:    strings.Repeat("é", 80) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := conversationTitle(tt.message)
			if got != tt.want {
				t.Errorf("conversationTitle(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestCitationsRoundTrip(t *testing.T) {
	citations := []trace.Citation{
		{Document: "syllabus.txt", Source: "syllabus.txt", Similarity: 0.92},
		{Document: "week3.md", Source: "notes/week3.md", Similarity: 0.81},
	}

	entities := citationsToEntity(citations)
	if len(entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(entities))
	}
	if entities[0].Document != "syllabus.txt" || entities[1].Similarity != 0.81 {
		t.Errorf("Entity mapping lost fields: %+v", entities)
	}

	// Empty citations persist as nil so the jsonb column stays NULL.
	if got := citationsToEntity(nil); got != nil {
		t.Errorf("Expected nil for empty citations, got %v", got)
	}

	// The response side always carries a slice, even when empty.
	sources := citationsToDTO(nil)
	if sources == nil {
		t.Error("citationsToDTO should return an empty slice, not nil")
	}
	sources = citationsToDTO(citations)
	if len(sources) != 2 || sources[1].Source != "notes/week3.md" {
		t.Errorf("DTO mapping lost fields: %+v", sources)
	}
}
