package conversation

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/agui-core/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	eventsApplied = newCounter("agui.reducer.events", "Events applied to the transcript")
	anomalies     = newCounter("agui.reducer.anomalies", "Events that could not be applied as sent")
	turnsFinished = newCounter("agui.turns", "Turns by outcome")
)

func newCounter(name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return counter
}
