package agent

import "fmt"

// OrchestrationError reports a run that failed because a required
// upstream service was unreachable. Message is safe to show users;
// the wrapped error keeps the sentinel (llm.ErrUnavailable,
// retrieval.ErrUnavailable) for callers that classify failures.
type OrchestrationError struct {
	Stage   string
	Message string
	Err     error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("orchestration failed in %s: %v", e.Stage, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
