package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/koscakluka/agui-core/core/events"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingField     = errors.New("missing required field")
)

// DecodeError reports a frame that could not be normalized into an event.
// Frames failing with a DecodeError are skipped by [Events].
type DecodeError struct {
	// Type is the frame's discriminant, empty when it could not be read.
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("failed to decode frame: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode %s frame: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type frameBase struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func (f frameBase) base(kind events.Kind) events.Base {
	if f.Timestamp <= 0 {
		return events.NewBase(kind)
	}
	return events.NewBaseAt(kind, time.UnixMilli(f.Timestamp))
}

type decodeFunc func(payload []byte) (events.Event, error)

// normalizers maps every wire discriminant of every supported dialect onto a
// decoder producing a canonical event.
var normalizers = mergeDialects(sharedFrames, toolCallDialect, actionExecutionDialect)

func mergeDialects(dialects ...map[string]decodeFunc) map[string]decodeFunc {
	merged := map[string]decodeFunc{}
	for _, dialect := range dialects {
		maps.Copy(merged, dialect)
	}
	return merged
}

// Decode normalizes a single frame payload into a canonical event.
func Decode(payload []byte) (events.Event, error) {
	var frame frameBase
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if frame.Type == "" {
		return nil, &DecodeError{Err: fmt.Errorf("%w: type", ErrMissingField)}
	}

	decode, ok := normalizers[frame.Type]
	if !ok {
		return nil, &DecodeError{Type: frame.Type, Err: ErrUnknownEventType}
	}

	event, err := decode(payload)
	if err != nil {
		return nil, &DecodeError{Type: frame.Type, Err: err}
	}
	return event, nil
}

const (
	frameRunStarted         = "RUN_STARTED"
	frameRunFinished        = "RUN_FINISHED"
	frameRunError           = "RUN_ERROR"
	frameTextMessageStart   = "TEXT_MESSAGE_START"
	frameTextMessageContent = "TEXT_MESSAGE_CONTENT"
	frameTextMessageEnd     = "TEXT_MESSAGE_END"
)

// sharedFrames are identical in both dialects.
var sharedFrames = map[string]decodeFunc{
	frameRunStarted: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[runFrame](payload)
		if err != nil {
			return nil, err
		}
		return events.RunStarted{Base: frame.base(events.KindRunStarted), ThreadID: frame.ThreadID, RunID: frame.RunID}, nil
	},
	frameRunFinished: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[runFrame](payload)
		if err != nil {
			return nil, err
		}
		return events.RunFinished{Base: frame.base(events.KindRunFinished), ThreadID: frame.ThreadID, RunID: frame.RunID}, nil
	},
	frameRunError: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[runErrorFrame](payload)
		if err != nil {
			return nil, err
		}
		return events.RunError{Base: frame.base(events.KindRunError), Message: frame.Message, Code: frame.Code}, nil
	},
	frameTextMessageStart: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[textMessageFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("messageId", frame.MessageID); err != nil {
			return nil, err
		}
		return events.TextMessageStart{Base: frame.base(events.KindTextMessageStart), MessageID: frame.MessageID, Role: frame.Role}, nil
	},
	frameTextMessageContent: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[textMessageFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("messageId", frame.MessageID); err != nil {
			return nil, err
		}
		return events.TextMessageContent{Base: frame.base(events.KindTextMessageContent), MessageID: frame.MessageID, Delta: frame.Delta}, nil
	},
	frameTextMessageEnd: func(payload []byte) (events.Event, error) {
		frame, err := unmarshalFrame[textMessageFrame](payload)
		if err != nil {
			return nil, err
		}
		if err := requireField("messageId", frame.MessageID); err != nil {
			return nil, err
		}
		return events.TextMessageEnd{Base: frame.base(events.KindTextMessageEnd), MessageID: frame.MessageID}, nil
	},
}

type runFrame struct {
	frameBase
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

type runErrorFrame struct {
	frameBase
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type textMessageFrame struct {
	frameBase
	MessageID string `json:"messageId"`
	Role      string `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`
}

func unmarshalFrame[T any](payload []byte) (T, error) {
	var frame T
	if err := json.Unmarshal(payload, &frame); err != nil {
		return frame, err
	}
	return frame, nil
}

func requireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return nil
}

// textValue renders a JSON value as text: strings are unquoted, anything else
// is kept as its raw JSON encoding.
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
