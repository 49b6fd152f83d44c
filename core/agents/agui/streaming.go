package agui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/events"
	"github.com/koscakluka/agui-core/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBodySize = 64 << 10

// Run posts the turn request and streams the decoded events of the response.
//
// A response with a non success status yields a single *agents.StatusError.
// Undecodable frames are skipped. Read errors, including the ones caused by
// cancelling ctx, are yielded as the last element.
func (c *Client) Run(ctx context.Context, request agents.TurnRequest) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "agui stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.thread_id", request.ThreadID),
			attribute.String("request.run_id", request.RunID),
			attribute.Int("request.messages", len(request.Messages)),
		)

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		requestBodyBytes, err := json.Marshal(request)
		if err != nil {
			fail(fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBodyBytes))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}
		for key, values := range c.header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		requestStarted := time.Now()
		span.AddEvent("request started")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &agents.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			if errorBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)); err != nil {
				span.RecordError(fmt.Errorf("error reading error body: %w", err))
			} else {
				statusErr.Body = string(bytes.TrimSpace(errorBody))
				span.SetAttributes(attribute.String("response.error", statusErr.Body))
			}
			logger.WarnContext(ctx, "agent rejected turn request", "status", resp.Status, "run_id", request.RunID)
			fail(statusErr)
			return
		}

		eventCount := 0
		defer func() { span.SetAttributes(attribute.Int("response.events", eventCount)) }()
		for event, err := range protocol.Events(resp.Body) {
			if err != nil {
				fail(fmt.Errorf("error reading event stream: %w", err))
				return
			}
			if eventCount == 0 {
				span.AddEvent("received first event", trace.WithAttributes(
					attribute.Float64("response.request_to_first_event_time", time.Since(requestStarted).Seconds()),
				))
			}
			eventCount++
			if !yield(event, nil) {
				return
			}
		}
	}
}
