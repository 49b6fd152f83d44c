package events

const (
	// KindToolCallStart identifies the start of a tool invocation.
	KindToolCallStart Kind = "tool_call.start"
	// KindToolCallArgs identifies a tool argument delta.
	KindToolCallArgs Kind = "tool_call.args"
	// KindToolCallEnd identifies the end of tool arguments.
	KindToolCallEnd Kind = "tool_call.end"
	// KindToolCallResult identifies a tool result.
	KindToolCallResult Kind = "tool_call.result"
)

// ToolCallStart marks the start of a tool invocation. ParentMessageID is empty
// when the producer did not name a parent.
type ToolCallStart struct {
	Base
	ToolCallID      string
	ToolCallName    string
	ParentMessageID string
}

// NewToolCallStart creates a tool call start event.
func NewToolCallStart(toolCallID, toolCallName, parentMessageID string) ToolCallStart {
	return ToolCallStart{
		Base:            NewBase(KindToolCallStart),
		ToolCallID:      toolCallID,
		ToolCallName:    toolCallName,
		ParentMessageID: parentMessageID,
	}
}

// ToolCallArgs carries an argument delta for a tool invocation.
type ToolCallArgs struct {
	Base
	ToolCallID string
	Delta      string
}

// NewToolCallArgs creates a tool call args event.
func NewToolCallArgs(toolCallID, delta string) ToolCallArgs {
	return ToolCallArgs{Base: NewBase(KindToolCallArgs), ToolCallID: toolCallID, Delta: delta}
}

// ToolCallEnd marks the end of a tool invocation's arguments.
type ToolCallEnd struct {
	Base
	ToolCallID string
}

// NewToolCallEnd creates a tool call end event.
func NewToolCallEnd(toolCallID string) ToolCallEnd {
	return ToolCallEnd{Base: NewBase(KindToolCallEnd), ToolCallID: toolCallID}
}

// ToolCallResult carries the result of a tool invocation.
type ToolCallResult struct {
	Base
	ToolCallID string
	MessageID  string
	Content    string
}

// NewToolCallResult creates a tool call result event.
func NewToolCallResult(toolCallID, content string) ToolCallResult {
	return ToolCallResult{Base: NewBase(KindToolCallResult), ToolCallID: toolCallID, Content: content}
}
