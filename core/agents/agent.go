// Package agents defines the contract between a conversation and the remote
// agent that executes its turns.
package agents

import (
	"context"
	"fmt"
	"iter"

	"github.com/koscakluka/agui-core/core/events"
)

// Agent runs a single turn and streams back its events in wire order.
//
// The sequence ends after a terminal event, when the underlying stream ends,
// or after yielding an error. Cancelling ctx aborts the in-flight request.
type Agent interface {
	Run(ctx context.Context, request TurnRequest) iter.Seq2[events.Event, error]
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc func(ctx context.Context, request TurnRequest) iter.Seq2[events.Event, error]

func (f AgentFunc) Run(ctx context.Context, request TurnRequest) iter.Seq2[events.Event, error] {
	return f(ctx, request)
}

// StatusError is returned when the agent rejects a turn request with a non
// success status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("agent responded with %s", e.Status)
	}
	return fmt.Sprintf("agent responded with %s: %s", e.Status, e.Body)
}
