package protocol

import (
	"encoding/json"

	"github.com/koscakluka/agui-core/core/events"
)

const (
	frameActionExecutionStart  = "ACTION_EXECUTION_START"
	frameActionExecutionArgs   = "ACTION_EXECUTION_ARGS"
	frameActionExecutionEnd    = "ACTION_EXECUTION_END"
	frameActionExecutionResult = "ACTION_EXECUTION_RESULT"
)

// actionExecutionDialect is the legacy encoding of tool progress, keyed by
// actionExecutionId. It normalizes onto the tool_call events.
var actionExecutionDialect = map[string]decodeFunc{
	frameActionExecutionStart: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[actionExecutionFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("actionExecutionId", frame.ActionExecutionID); err != nil {
			return nil, err
		}
		return events.ToolCallStart{
			Base:            frame.base(events.KindToolCallStart),
			ToolCallID:      frame.ActionExecutionID,
			ToolCallName:    frame.ActionName,
			ParentMessageID: frame.ParentMessageID,
		}, nil
	},
	frameActionExecutionArgs: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[actionExecutionFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("actionExecutionId", frame.ActionExecutionID); err != nil {
			return nil, err
		}
		return events.ToolCallArgs{Base: frame.base(events.KindToolCallArgs), ToolCallID: frame.ActionExecutionID, Delta: frame.Args}, nil
	},
	frameActionExecutionEnd: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[actionExecutionFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("actionExecutionId", frame.ActionExecutionID); err != nil {
			return nil, err
		}
		return events.ToolCallEnd{Base: frame.base(events.KindToolCallEnd), ToolCallID: frame.ActionExecutionID}, nil
	},
	frameActionExecutionResult: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[actionExecutionFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("actionExecutionId", frame.ActionExecutionID); err != nil {
			return nil, err
		}
		return events.ToolCallResult{
			Base:       frame.base(events.KindToolCallResult),
			ToolCallID: frame.ActionExecutionID,
			Content:    textValue(frame.Result),
		}, nil
	},
}

type actionExecutionFrame struct {
	frameBase
	ActionExecutionID string          `json:"actionExecutionId"`
	ActionName        string          `json:"actionName,omitempty"`
	ParentMessageID   string          `json:"parentMessageId,omitempty"`
	Args              string          `json:"args,omitempty"`
	Result            json.RawMessage `json:"result,omitempty"`
}
