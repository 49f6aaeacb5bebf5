package agent

import (
	"context"
	"errors"
	"log"
	"time"

	"academic-rag-be/pkg/agent/answer"
	"academic-rag-be/pkg/agent/coordinator"
	"academic-rag-be/pkg/agent/grader"
	"academic-rag-be/pkg/agent/rewriter"
	"academic-rag-be/pkg/agent/trace"
	"academic-rag-be/pkg/llm"
	"academic-rag-be/pkg/retrieval"
)

// State of the orchestration machine. done is the only terminal state and
// every run reaches it.
type State string

const (
	StateCoordinating State = "coordinating"
	StateSearching    State = "searching"
	StateGrading      State = "grading"
	StateRewriting    State = "rewriting"
	StateAnswering    State = "answering"
	StateDone         State = "done"
)

// Machine sequences one query through coordinate, search, grade, rewrite
// and answer steps, enforcing the retry bound and emitting a trace event
// for every transition. A Machine is stateless across runs and safe for
// concurrent use; all per-run state lives in the Session created inside
// Run.
type Machine struct {
	cfg         Config
	searcher    retrieval.Searcher
	coordinator *coordinator.Coordinator
	grader      *grader.Grader
	rewriter    *rewriter.Rewriter
	synthesizer *answer.Synthesizer
	logger      *log.Logger
}

func NewMachine(cfg Config, provider llm.LLMProvider, searcher retrieval.Searcher, logger *log.Logger) *Machine {
	return &Machine{
		cfg:         cfg,
		searcher:    searcher,
		coordinator: coordinator.New(provider, logger),
		grader:      grader.New(cfg.GraderThreshold, cfg.MaxRetries, logger),
		rewriter:    rewriter.New(provider, logger),
		synthesizer: answer.NewSynthesizer(provider, logger, cfg.LLMTemperature),
		logger:      logger,
	}
}

// Result of a completed run.
type Result struct {
	Answer     string
	Citations  []trace.Citation
	Trace      []trace.Event
	RetryCount int
	Elapsed    time.Duration
}

type runOptions struct {
	sinks []trace.Sink
}

// RunOption configures one run.
type RunOption func(*runOptions)

// WithSink attaches a live event consumer to the run. Sinks with a
// Close method are closed after the final done event.
func WithSink(sink trace.Sink) RunOption {
	return func(o *runOptions) {
		o.sinks = append(o.sinks, sink)
	}
}

// Run executes one query to completion. Insufficient evidence is a normal
// terminal path resolved with an honest answer; the only error condition
// is an unreachable upstream service, reported as *OrchestrationError
// after an error and a done(success=false) event. The emitted event
// sequence is finite and ends with exactly one done event.
func (m *Machine) Run(ctx context.Context, query string, conversation []llm.Message, opts ...RunOption) (*Result, error) {
	started := time.Now()

	var options runOptions
	for _, opt := range opts {
		opt(&options)
	}

	rec := trace.NewRecorder(options.sinks...)
	defer func() {
		for _, sink := range options.sinks {
			if closer, ok := sink.(interface{ Close() }); ok {
				closer.Close()
			}
		}
	}()

	s := newSession(query, windowed(conversation, m.cfg.ConversationWindow))
	m.logger.Printf("[MACHINE] Run started: %.80q", query)

	var (
		decision coordinator.Decision
		forced   bool
	)

	state := StateCoordinating
	for state != StateDone {
		// Cancellation checkpoint before each transition
		if err := ctx.Err(); err != nil {
			return m.fail(rec, s, state, started, err)
		}

		switch state {
		case StateCoordinating:
			rec.Record(trace.NewNodeStart(string(state)))
			d, err := m.coordinator.Decide(ctx, rec, s.ActiveQuery, s.Conversation)
			if err != nil {
				return m.fail(rec, s, state, started, err)
			}
			rec.Record(trace.NewNodeEnd(string(state)))

			decision = d
			if d.Action == coordinator.ActionSearch {
				if d.Input != "" {
					s.ActiveQuery = d.Input
				}
				state = StateSearching
			} else {
				state = StateAnswering
			}

		case StateSearching:
			rec.Record(trace.NewNodeStart(string(state)))
			items, err := m.searcher.Search(ctx, s.ActiveQuery, m.cfg.TopK, m.cfg.SimilarityThreshold)
			if err != nil {
				return m.fail(rec, s, state, started, err)
			}
			s.RetrievedItems = items
			rec.Record(trace.NewDocumentsRetrieved(string(state), len(items), uniqueSources(items)))
			rec.Record(trace.NewNodeEnd(string(state)))
			state = StateGrading

		case StateGrading:
			rec.Record(trace.NewNodeStart(string(state)))
			relevant, graderDecision, wasForced := m.grader.Grade(rec, s.OriginalQuery, s.RetrievedItems, s.RetryCount)
			s.RelevantItems = relevant
			forced = wasForced
			rec.Record(trace.NewNodeEnd(string(state)))

			if graderDecision == grader.DecisionRewrite {
				state = StateRewriting
			} else {
				state = StateAnswering
			}

		case StateRewriting:
			if s.RetryCount >= m.cfg.MaxRetries {
				// The grader's decision rules make this unreachable.
				panic("agent: rewriter invoked past the retry limit")
			}
			s.RetryCount++
			rec.SetIteration(s.RetryCount)

			rec.Record(trace.NewNodeStart(string(state)))
			rewritten, err := m.rewriter.Rewrite(ctx, rec, s.OriginalQuery, s.ActiveQuery)
			if err != nil {
				return m.fail(rec, s, state, started, err)
			}
			s.ActiveQuery = rewritten
			rec.Record(trace.NewNodeEnd(string(state)))
			state = StateSearching

		case StateAnswering:
			rec.Record(trace.NewNodeStart(string(state)))
			text, citations, err := m.synthesizer.Synthesize(ctx, rec, answer.Input{
				Query:       s.OriginalQuery,
				History:     s.Conversation,
				Evidence:    s.RelevantItems,
				Clarify:     decision.Action == coordinator.ActionClarify,
				OutOfDomain: decision.OutOfDomain,
				Forced:      forced,
				Provided:    decision.Input,
			}, s.RetryCount)
			if err != nil {
				return m.fail(rec, s, state, started, err)
			}
			s.FinalAnswer = text
			s.Citations = citations
			rec.Record(trace.NewNodeEnd(string(state)))
			state = StateDone
		}
	}

	s.Status = StatusAnswered
	elapsed := time.Since(started)
	rec.Record(trace.NewDone(true, elapsed, s.RetryCount))
	m.logger.Printf("[MACHINE] Run finished in %.2fs, %d retries", elapsed.Seconds(), s.RetryCount)

	return &Result{
		Answer:     s.FinalAnswer,
		Citations:  s.Citations,
		Trace:      rec.Events(),
		RetryCount: s.RetryCount,
		Elapsed:    elapsed,
	}, nil
}

func (m *Machine) fail(rec *trace.Recorder, s *Session, state State, started time.Time, err error) (*Result, error) {
	s.Status = StatusFailed
	m.logger.Printf("[MACHINE] Run failed in %s: %v", state, err)

	message := failureMessage(err)
	rec.Record(trace.NewError(string(state), message))
	rec.Record(trace.NewDone(false, time.Since(started), s.RetryCount))

	return nil, &OrchestrationError{Stage: string(state), Message: message, Err: err}
}

// failureMessage maps internal failures to the explicit, human-readable
// text exposed in the error event. Raw error payloads never reach users.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "The request was cancelled before it could complete."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out before it could complete."
	case errors.Is(err, llm.ErrUnavailable):
		return "The language model service is currently unavailable. Please try again later."
	case errors.Is(err, retrieval.ErrUnavailable):
		return "The document search service is currently unavailable. Please try again later."
	default:
		return "An internal error interrupted the run. Please try again."
	}
}

// uniqueSources lists each source file once, in first-seen order.
func uniqueSources(items []retrieval.Item) []string {
	seen := make(map[string]struct{}, len(items))
	sources := make([]string, 0, len(items))
	for _, item := range items {
		name := item.SourceName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}
