package memory

import (
	"testing"

	"academic-rag-be/pkg/llm"
)

func TestHistoryCacheWindow(t *testing.T) {
	h := NewHistoryCache(4)

	history := []llm.Message{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
		{Role: "user", Content: "five"},
		{Role: "assistant", Content: "six"},
	}
	h.Put("conv-1", history)

	got, found := h.Get("conv-1")
	if !found {
		t.Fatal("Expected cache hit after Put")
	}
	if len(got) != 4 {
		t.Fatalf("Expected window of 4 messages, got %d", len(got))
	}
	if got[0].Content != "three" || got[3].Content != "six" {
		t.Errorf("Window should keep the most recent messages, got %v", got)
	}
}

func TestHistoryCachePutCopies(t *testing.T) {
	h := NewHistoryCache(0)

	history := []llm.Message{{Role: "user", Content: "original"}}
	h.Put("conv-1", history)

	// Mutating the caller's slice must not reach the cached copy.
	history[0].Content = "mutated"

	got, _ := h.Get("conv-1")
	if got[0].Content != "original" {
		t.Errorf("Cached history shares backing array with caller: %v", got)
	}
}

func TestHistoryCacheAppend(t *testing.T) {
	h := NewHistoryCache(4)

	// Append on a cold key is a no-op; the database repopulates on read.
	h.Append("cold", llm.Message{Role: "user", Content: "ignored"})
	if _, found := h.Get("cold"); found {
		t.Error("Append must not create entries for unknown conversations")
	}

	h.Put("conv-1", []llm.Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
	})
	h.Append("conv-1",
		llm.Message{Role: "user", Content: "q2"},
		llm.Message{Role: "assistant", Content: "a2"},
	)

	got, _ := h.Get("conv-1")
	if len(got) != 4 {
		t.Fatalf("Expected 4 messages after append, got %d", len(got))
	}
	if got[3].Content != "a2" {
		t.Errorf("Appended exchange missing, got %v", got)
	}

	// One more exchange pushes the oldest out of the window.
	h.Append("conv-1",
		llm.Message{Role: "user", Content: "q3"},
		llm.Message{Role: "assistant", Content: "a3"},
	)
	got, _ = h.Get("conv-1")
	if len(got) != 4 || got[0].Content != "q2" {
		t.Errorf("Window should slide on append, got %v", got)
	}
}

func TestHistoryCacheDelete(t *testing.T) {
	h := NewHistoryCache(4)
	h.Put("conv-1", []llm.Message{{Role: "user", Content: "q"}})
	h.Delete("conv-1")

	if _, found := h.Get("conv-1"); found {
		t.Error("Expected miss after delete")
	}
}
