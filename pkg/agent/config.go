package agent

// Defaults tuned against the indexed academic corpus.
const (
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.2
	DefaultGraderThreshold     = 0.25
	DefaultMaxRetries          = 2
	DefaultConversationWindow  = 10
	DefaultLLMTemperature      = 0.3
)

// Config carries the orchestration knobs. Start from DefaultConfig and
// override; the machine uses the values verbatim.
type Config struct {
	// TopK caps how many items one search returns.
	TopK int

	// SimilarityThreshold filters items at the search layer.
	SimilarityThreshold float64

	// GraderThreshold is the inclusive relevance cutoff; items scoring
	// exactly the threshold count as relevant.
	GraderThreshold float64

	// MaxRetries bounds rewrite cycles per run, making total search
	// attempts at most MaxRetries+1.
	MaxRetries int

	// ConversationWindow bounds how many prior messages reach the run.
	ConversationWindow int

	// LLMTemperature applies to answer synthesis only; routing and
	// rewriting keep their own fixed temperatures.
	LLMTemperature float64
}

func DefaultConfig() Config {
	return Config{
		TopK:                DefaultTopK,
		SimilarityThreshold: DefaultSimilarityThreshold,
		GraderThreshold:     DefaultGraderThreshold,
		MaxRetries:          DefaultMaxRetries,
		ConversationWindow:  DefaultConversationWindow,
		LLMTemperature:      DefaultLLMTemperature,
	}
}
