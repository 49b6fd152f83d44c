package protocol

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/koscakluka/agui-core/core/events"
)

// Encode renders a canonical event as a frame payload in the tool call
// dialect.
func Encode(event events.Event) ([]byte, error) {
	timestamp := event.Timestamp().UnixMilli()
	if event.Timestamp().IsZero() {
		timestamp = 0
	}
	base := func(frameType string) frameBase {
		return frameBase{Type: frameType, Timestamp: timestamp}
	}

	var frame any
	switch e := event.(type) {
	case events.RunStarted:
		frame = runFrame{frameBase: base(frameRunStarted), ThreadID: e.ThreadID, RunID: e.RunID}
	case events.RunFinished:
		frame = runFrame{frameBase: base(frameRunFinished), ThreadID: e.ThreadID, RunID: e.RunID}
	case events.RunError:
		frame = runErrorFrame{frameBase: base(frameRunError), Message: e.Message, Code: e.Code}
	case events.TextMessageStart:
		frame = textMessageFrame{frameBase: base(frameTextMessageStart), MessageID: e.MessageID, Role: e.Role}
	case events.TextMessageContent:
		frame = textMessageFrame{frameBase: base(frameTextMessageContent), MessageID: e.MessageID, Delta: e.Delta}
	case events.TextMessageEnd:
		frame = textMessageFrame{frameBase: base(frameTextMessageEnd), MessageID: e.MessageID}
	case events.ToolCallStart:
		frame = toolCallFrame{frameBase: base(frameToolCallStart), ToolCallID: e.ToolCallID, ToolCallName: e.ToolCallName, ParentMessageID: e.ParentMessageID}
	case events.ToolCallArgs:
		frame = toolCallFrame{frameBase: base(frameToolCallArgs), ToolCallID: e.ToolCallID, Delta: e.Delta}
	case events.ToolCallEnd:
		frame = toolCallFrame{frameBase: base(frameToolCallEnd), ToolCallID: e.ToolCallID}
	case events.ToolCallResult:
		content, err := json.Marshal(e.Content)
		if err != nil {
			return nil, fmt.Errorf("error marshalling tool result: %w", err)
		}
		frame = toolCallFrame{frameBase: base(frameToolCallResult), ToolCallID: e.ToolCallID, MessageID: e.MessageID, Content: content}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, event.Kind())
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("error marshalling frame: %w", err)
	}
	return payload, nil
}

// WriteFrame writes event to w as a single data record followed by a blank
// line.
func WriteFrame(w io.Writer, event events.Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s\n\n", chunkPrefix, payload); err != nil {
		return fmt.Errorf("error writing frame: %w", err)
	}
	return nil
}

// WriteEndMessage writes the end of stream sentinel.
func WriteEndMessage(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s %s\n\n", chunkPrefix, endMessage); err != nil {
		return fmt.Errorf("error writing end message: %w", err)
	}
	return nil
}
