package conversation

import (
	"context"
	"sync"
	"sync/atomic"
)

type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeFinished  Outcome = "finished"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Turn is the handle of a single in-flight exchange with the agent.
type Turn struct {
	ID string

	cancelFn  context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}

	mu      sync.RWMutex
	outcome Outcome
	err     error
}

func newTurn(id string, cancel context.CancelFunc) *Turn {
	return &Turn{
		ID:       id,
		cancelFn: cancel,
		done:     make(chan struct{}),
		outcome:  OutcomeRunning,
	}
}

// Cancel aborts the in-flight request. Content applied so far stays in the
// transcript. Cancelling a turn that already closed has no effect.
func (t *Turn) Cancel() {
	if !t.cancelled.CompareAndSwap(false, true) {
		return
	}
	t.cancelFn()
}

func (t *Turn) IsCancelled() bool {
	return t.cancelled.Load()
}

// Done is closed once the turn has closed and its decode loop exited.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn closes. It returns nil for finished and cancelled
// turns and the failure otherwise.
func (t *Turn) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Turn) Outcome() Outcome {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.outcome
}

// Err is either a *ProtocolError or a *TransportError once the turn failed.
func (t *Turn) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

func (t *Turn) finalise(outcome Outcome, err error) {
	t.mu.Lock()
	t.outcome = outcome
	t.err = err
	t.mu.Unlock()

	t.cancelFn()
	close(t.done)
}
