package trace

import (
	"sync"
	"time"
)

// Sink receives events as they are recorded. Implementations must not block:
// a slow sink stalls the run it observes.
type Sink interface {
	Write(Event)
}

// Recorder collects the append-only decision trace for one run and fans each
// event out to the attached sinks the moment it is recorded. The iteration
// stamp is owned by the recorder so components never track retry state.
type Recorder struct {
	mu        sync.Mutex
	iteration int
	events    []Event
	sinks     []Sink
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks}
}

// SetIteration updates the iteration stamped on subsequent events.
func (r *Recorder) SetIteration(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iteration = n
}

// Record stamps the event with the current iteration and timestamp, appends
// it to the trace, and delivers it to every sink before returning.
func (r *Recorder) Record(ev Event) {
	r.mu.Lock()
	ev.Iteration = r.iteration
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	r.events = append(r.events, ev)
	sinks := r.sinks
	r.mu.Unlock()

	for _, sink := range sinks {
		sink.Write(ev)
	}
}

// Events returns a copy of the trace recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ChannelSink exposes recorded events as a channel for live consumers. The
// buffer must cover the maximum number of events one run can emit so that
// Write never blocks even when the consumer has gone away.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// DefaultChannelBuffer exceeds the event count of a worst-case run (every
// retry exhausted) with room to spare.
const DefaultChannelBuffer = 64

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = DefaultChannelBuffer
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (s *ChannelSink) Write(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		// Buffer sized for a full run; reaching here means the consumer
		// abandoned the stream, so dropping is safe.
	}
}

// Events is the receive side of the sink. It is closed by Close once the
// producing run has finished.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Close is idempotent; the producing run and the request handler may both
// attempt it depending on where a failure lands.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
