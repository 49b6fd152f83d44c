package events

const (
	// KindRunStarted identifies the start of a run.
	KindRunStarted Kind = "run.started"
	// KindRunFinished identifies successful run completion.
	KindRunFinished Kind = "run.finished"
	// KindRunError identifies a run failure reported by the producer.
	KindRunError Kind = "run.error"
)

// RunStarted marks the start of a run.
type RunStarted struct {
	Base
	ThreadID string
	RunID    string
}

// NewRunStarted creates a run started event.
func NewRunStarted(threadID, runID string) RunStarted {
	return RunStarted{Base: NewBase(KindRunStarted), ThreadID: threadID, RunID: runID}
}

// RunFinished marks successful completion of a run.
type RunFinished struct {
	Base
	ThreadID string
	RunID    string
}

// NewRunFinished creates a run finished event.
func NewRunFinished(threadID, runID string) RunFinished {
	return RunFinished{Base: NewBase(KindRunFinished), ThreadID: threadID, RunID: runID}
}

// RunError marks a run failure.
type RunError struct {
	Base
	Message string
	Code    string
}

// NewRunError creates a run error event.
func NewRunError(message, code string) RunError {
	return RunError{Base: NewBase(KindRunError), Message: message, Code: code}
}
