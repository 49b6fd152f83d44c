package protocol

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/agui-core/core/protocol"

var (
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	framesSkipped = newCounter("agui.protocol.frames_skipped", "Frames dropped because they could not be decoded")
)

func newCounter(name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return counter
}
