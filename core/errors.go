package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamEnded is the cause of a transport failure when the event stream
	// ends before a terminal event.
	ErrStreamEnded = errors.New("event stream ended without a terminal event")
	// ErrUnknownReference marks events naming a message or tool call the turn
	// does not know. It is only ever logged.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrConversationClosed is returned when starting a turn on a closed
	// conversation.
	ErrConversationClosed = errors.New("conversation closed")
)

// ProtocolError is the failure reported by the agent with a run error event.
type ProtocolError struct {
	Message string
	Code    string
}

func (e *ProtocolError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("agent run failed: %s", e.Message)
	}
	return fmt.Sprintf("agent run failed (%s): %s", e.Code, e.Message)
}

// TransportError is a failure of the connection to the agent. Started reports
// whether any event had been applied before the failure.
type TransportError struct {
	Started bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Started {
		return fmt.Sprintf("event stream failed mid-turn: %v", e.Err)
	}
	return fmt.Sprintf("failed to start event stream: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
