package retrieval

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable marks failures where the embedding service or the vector
// index could not be reached. Callers detect it with errors.Is; any other
// error from this package indicates a programming mistake, not an outage.
var ErrUnavailable = errors.New("similarity search unavailable")

// Item is one piece of retrieved evidence. Similarity is cosine similarity
// as reported by the index and is not clamped to [0,1].
type Item struct {
	Content    string
	Source     string
	Similarity float64
}

// SourceName reduces the source identifier to its file name. Indexed
// sources may carry path prefixes from the machine they were loaded on,
// including Windows separators.
func (i Item) SourceName() string {
	name := i.Source
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndexByte(name, '\\'); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// Searcher answers a text query with the closest indexed chunks, capped at
// topK and filtered below threshold.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, threshold float64) ([]Item, error)
}
