package retrieval

import (
	"academic-rag-be/pkg/embedding"
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

type stubIndex struct {
	items     []Item
	err       error
	gotLimit  int
	gotThresh float64
}

func (s *stubIndex) QueryNearest(ctx context.Context, vector []float32, limit int, threshold float64) ([]Item, error) {
	s.gotLimit = limit
	s.gotThresh = threshold
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestRetrieverFiltersAndCaps(t *testing.T) {
	tests := []struct {
		name        string
		items       []Item
		topK        int
		threshold   float64
		wantSources []string
	}{
		{
			name: "drops below threshold",
			items: []Item{
				{Source: "a.pdf", Similarity: 0.9},
				{Source: "b.pdf", Similarity: 0.19},
				{Source: "c.pdf", Similarity: 0.3},
			},
			topK:        5,
			threshold:   0.2,
			wantSources: []string{"a.pdf", "c.pdf"},
		},
		{
			name: "caps at topK",
			items: []Item{
				{Source: "a.pdf", Similarity: 0.9},
				{Source: "b.pdf", Similarity: 0.8},
				{Source: "c.pdf", Similarity: 0.7},
			},
			topK:        2,
			threshold:   0.2,
			wantSources: []string{"a.pdf", "b.pdf"},
		},
		{
			name:        "empty index result is valid",
			items:       nil,
			topK:        5,
			threshold:   0.2,
			wantSources: []string{},
		},
		{
			name: "threshold is inclusive",
			items: []Item{
				{Source: "edge.pdf", Similarity: 0.2},
			},
			topK:        5,
			threshold:   0.2,
			wantSources: []string{"edge.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &stubIndex{items: tt.items}
			r := NewRetriever(&stubEmbedder{}, index)

			got, err := r.Search(context.Background(), "query", tt.topK, tt.threshold)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if index.gotLimit != tt.topK*2 {
				t.Errorf("index limit = %d, want %d", index.gotLimit, tt.topK*2)
			}
			if len(got) != len(tt.wantSources) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.wantSources))
			}
			for i, item := range got {
				if item.Source != tt.wantSources[i] {
					t.Errorf("item %d source = %s, want %s", i, item.Source, tt.wantSources[i])
				}
			}
		})
	}
}

func TestRetrieverWrapsUpstreamFailures(t *testing.T) {
	t.Run("embedder down", func(t *testing.T) {
		r := NewRetriever(&stubEmbedder{err: errors.New("connection refused")}, &stubIndex{})
		_, err := r.Search(context.Background(), "query", 5, 0.2)
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("index down", func(t *testing.T) {
		r := NewRetriever(&stubEmbedder{}, &stubIndex{err: errors.New("dial tcp: refused")})
		_, err := r.Search(context.Background(), "query", 5, 0.2)
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := NewRetriever(&stubEmbedder{}, &stubIndex{})
		_, err := r.Search(ctx, "query", 5, 0.2)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
