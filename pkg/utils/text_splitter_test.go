package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputStaysWhole(t *testing.T) {
	chunks := SplitText("short text", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("SplitText = %v, want the input unchanged", chunks)
	}
	if got := SplitText("", 1000, 200); got != nil {
		t.Errorf("SplitText(\"\") = %v, want nil", got)
	}
}

func TestSplitTextChunkBounds(t *testing.T) {
	text := strings.Repeat("palabra ", 400) // ~3200 chars
	chunks := SplitText(text, 1000, 200)

	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 1000 {
			t.Errorf("chunk %d has %d runes, want <= 1000", i, len([]rune(chunk)))
		}
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitTextPrefersSentenceBoundaries(t *testing.T) {
	sentence := "Neural networks learn hierarchical representations. "
	text := strings.Repeat(sentence, 60)

	chunks := SplitText(text, 1000, 200)
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, ". ") && !strings.HasSuffix(chunk, " ") {
			t.Errorf("chunk %d does not end at a boundary: %q", i, chunk[len(chunk)-20:])
		}
	}
}

func TestSplitTextOverlapPreservesContext(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := SplitText(text, 1000, 200)

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	// Overlap means the concatenation is longer than the input
	if total <= len(text) {
		t.Errorf("total chunk length %d, want > %d from overlap", total, len(text))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "line one  \n\n\n\nline two\t\n  \nline three\n\n"
	got := NormalizeWhitespace(in)
	want := "line one\n\nline two\n\nline three"
	if got != want {
		t.Errorf("NormalizeWhitespace = %q, want %q", got, want)
	}
}
