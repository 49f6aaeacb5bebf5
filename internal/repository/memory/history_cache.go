package memory

import (
	"time"

	"academic-rag-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

// HistoryCache keeps the recent message window of active conversations in
// process memory so each chat turn avoids a database read. Entries expire
// after an hour of inactivity; the database stays the source of truth.
type HistoryCache struct {
	cache  *cache.Cache
	window int
}

func NewHistoryCache(window int) *HistoryCache {
	// Default expiration of 1 hour, expired entries purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &HistoryCache{
		cache:  c,
		window: window,
	}
}

func (h *HistoryCache) Get(conversationID string) ([]llm.Message, bool) {
	if x, found := h.cache.Get(conversationID); found {
		return x.([]llm.Message), true
	}
	return nil, false
}

func (h *HistoryCache) Put(conversationID string, history []llm.Message) {
	if h.window > 0 && len(history) > h.window {
		history = history[len(history)-h.window:]
	}
	copied := make([]llm.Message, len(history))
	copy(copied, history)
	h.cache.Set(conversationID, copied, cache.DefaultExpiration)
}

// Append extends a cached window in place, trimming to the configured
// size. A miss is ignored; the next Get repopulates from the database.
func (h *HistoryCache) Append(conversationID string, messages ...llm.Message) {
	existing, found := h.Get(conversationID)
	if !found {
		return
	}
	h.Put(conversationID, append(existing, messages...))
}

func (h *HistoryCache) Delete(conversationID string) {
	h.cache.Delete(conversationID)
}
