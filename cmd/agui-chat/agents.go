package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/events"
	"github.com/koscakluka/agui-core/core/protocol"
)

// recordingAgent copies every event it streams to w as SSE frames, so the
// recording can be replayed later.
type recordingAgent struct {
	agent  agents.Agent
	w      io.Writer
	logger *slog.Logger
}

func (a recordingAgent) Run(ctx context.Context, request agents.TurnRequest) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		defer func() {
			if err := protocol.WriteEndMessage(a.w); err != nil {
				a.logger.Warn("failed to finish recording", "error", err)
			}
		}()

		for event, err := range a.agent.Run(ctx, request) {
			if err == nil {
				if werr := protocol.WriteFrame(a.w, event); werr != nil {
					a.logger.Warn("failed to record event", "kind", event.Kind(), "error", werr)
				}
			}
			if !yield(event, err) {
				return
			}
		}
	}
}

// fileAgent streams a recorded event stream instead of calling a service.
type fileAgent struct {
	path string
}

func (a fileAgent) Run(ctx context.Context, _ agents.TurnRequest) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		file, err := os.Open(a.path)
		if err != nil {
			yield(nil, fmt.Errorf("failed to open recording: %w", err))
			return
		}
		defer file.Close()

		for event, err := range protocol.Events(file) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(nil, ctxErr)
				return
			}
			if !yield(event, err) {
				return
			}
		}
	}
}
