package protocol

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/koscakluka/agui-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Events decodes the frames read from r into canonical events.
//
// Frames that fail to decode are logged and skipped; a single bad frame never
// ends the sequence. Read errors are yielded and end the sequence.
func Events(r io.Reader) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		for payload, err := range Frames(r) {
			if err != nil {
				yield(nil, err)
				return
			}

			event, ok := DecodeOrSkip(payload)
			if !ok {
				continue
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

// DecodeOrSkip decodes payload, logging and counting it as skipped when it is
// not a valid event frame.
func DecodeOrSkip(payload []byte) (events.Event, bool) {
	event, err := Decode(payload)
	if err == nil {
		return event, true
	}

	var decodeErr *DecodeError
	frameType := ""
	if errors.As(err, &decodeErr) {
		frameType = decodeErr.Type
	}
	logger.Debug("skipping undecodable frame", "type", frameType, "error", err)
	framesSkipped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("frame.type", frameType)))
	return nil, false
}
