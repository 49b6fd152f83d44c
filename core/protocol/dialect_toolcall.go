package protocol

import (
	"encoding/json"

	"github.com/koscakluka/agui-core/core/events"
)

const (
	frameToolCallStart  = "TOOL_CALL_START"
	frameToolCallArgs   = "TOOL_CALL_ARGS"
	frameToolCallEnd    = "TOOL_CALL_END"
	frameToolCallResult = "TOOL_CALL_RESULT"
)

// toolCallDialect expresses tool progress as TOOL_CALL_* frames keyed by
// toolCallId.
var toolCallDialect = map[string]decodeFunc{
	frameToolCallStart: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[toolCallFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("toolCallId", frame.ToolCallID); err != nil {
			return nil, err
		}
		return events.ToolCallStart{
			Base:            frame.base(events.KindToolCallStart),
			ToolCallID:      frame.ToolCallID,
			ToolCallName:    frame.ToolCallName,
			ParentMessageID: frame.ParentMessageID,
		}, nil
	},
	frameToolCallArgs: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[toolCallFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("toolCallId", frame.ToolCallID); err != nil {
			return nil, err
		}
		return events.ToolCallArgs{Base: frame.base(events.KindToolCallArgs), ToolCallID: frame.ToolCallID, Delta: frame.Delta}, nil
	},
	frameToolCallEnd: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[toolCallFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("toolCallId", frame.ToolCallID); err != nil {
			return nil, err
		}
		return events.ToolCallEnd{Base: frame.base(events.KindToolCallEnd), ToolCallID: frame.ToolCallID}, nil
	},
	frameToolCallResult: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[toolCallFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("toolCallId", frame.ToolCallID); err != nil {
			return nil, err
		}
		return events.ToolCallResult{
			Base:       frame.base(events.KindToolCallResult),
			ToolCallID: frame.ToolCallID,
			MessageID:  frame.MessageID,
			Content:    textValue(frame.Content),
		}, nil
	},
}

type toolCallFrame struct {
	frameBase
	ToolCallID      string          `json:"toolCallId"`
	ToolCallName    string          `json:"toolCallName,omitempty"`
	ParentMessageID string          `json:"parentMessageId,omitempty"`
	Delta           string          `json:"delta,omitempty"`
	MessageID       string          `json:"messageId,omitempty"`
	Content         json.RawMessage `json:"content,omitempty"`
}
