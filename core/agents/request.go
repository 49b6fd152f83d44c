package agents

import "encoding/json"

// ForwardedPropAgentID is the forwarded property the agent service uses to
// pick which agent runs the turn.
const ForwardedPropAgentID = "agent_id"

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// TurnRequest is the payload that starts a single turn on the agent. It
// carries the full message history of the thread and is not modified after it
// has been sent.
type TurnRequest struct {
	ThreadID string `json:"threadId"`
	// RunID identifies the turn.
	RunID    string    `json:"runId"`
	Messages []Message `json:"messages"`

	State          map[string]any `json:"state"`
	Tools          []Tool         `json:"tools"`
	Context        []ContextEntry `json:"context"`
	ForwardedProps map[string]any `json:"forwardedProps"`
}

type Message struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`

	// ToolCalls lists the tool invocations an assistant message made.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolCallID is the invocation a tool message is responding to.
	ToolCallID string `json:"toolCallId,omitempty"`
}

type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ContextEntry is a piece of application context forwarded to the agent.
type ContextEntry struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// MarshalJSON encodes the request so that unset extension points are sent as
// empty objects and arrays instead of null.
func (r TurnRequest) MarshalJSON() ([]byte, error) {
	type turnRequest TurnRequest
	wire := turnRequest(r)
	if wire.Messages == nil {
		wire.Messages = []Message{}
	}
	if wire.State == nil {
		wire.State = map[string]any{}
	}
	if wire.Tools == nil {
		wire.Tools = []Tool{}
	}
	if wire.Context == nil {
		wire.Context = []ContextEntry{}
	}
	if wire.ForwardedProps == nil {
		wire.ForwardedProps = map[string]any{}
	}
	return json.Marshal(wire)
}
