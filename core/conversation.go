// Package conversation runs turns against an agent and folds the streamed
// events into a transcript that any number of readers can observe.
package conversation

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Conversation owns a thread's transcript and runs at most one turn at a time.
type Conversation struct {
	agent      agents.Agent
	transcript *Transcript

	tools          []agents.Tool
	context        []agents.ContextEntry
	state          map[string]any
	forwardedProps map[string]any

	logger             *slog.Logger
	callbacks          callbacks
	emit               eventEmitter
	onMessageCompleted func(Message)

	// runMu serialises starting, resetting and closing so that a new turn only
	// starts once the previous decode loop has exited.
	runMu sync.Mutex

	mu         sync.RWMutex
	threadID   string
	activeTurn *Turn
	closed     bool
}

func New(agent agents.Agent, opts ...Option) *Conversation {
	c := &Conversation{
		agent:      agent,
		transcript: NewTranscript(),
		threadID:   uuid.NewString(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.emit = newCallbackEventEmitter(c.callbacks)
	return c
}

func (c *Conversation) ThreadID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threadID
}

func (c *Conversation) Transcript() *Transcript {
	return c.transcript
}

// ActiveTurn returns the turn that is still open, or nil.
func (c *Conversation) ActiveTurn() *Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeTurn
}

// RunTurn sends content as the user's next message and starts streaming the
// agent's response in the background.
//
// The user message is in the transcript by the time RunTurn returns. A turn
// that is still open is cancelled, and its decode loop awaited, first.
// Cancelling ctx cancels the turn.
func (c *Conversation) RunTurn(ctx context.Context, content string) (*Turn, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.isClosed() {
		return nil, ErrConversationClosed
	}
	c.stopActiveTurn()

	turnID := uuid.NewString()
	c.transcript.append(Message{
		ID:       uuid.NewString(),
		Role:     RoleUser,
		Content:  content,
		Complete: true,
		TurnID:   turnID,
	})
	request := c.turnRequest(turnID)

	turnCtx, cancel := context.WithCancel(ctx)
	turn := newTurn(turnID, cancel)
	reducer := newTurnReducer(turnID, c.transcript, c.logger, c.onMessageCompleted)

	c.mu.Lock()
	c.activeTurn = turn
	c.mu.Unlock()

	go c.runTurn(turnCtx, turn, reducer, request)
	return turn, nil
}

// Reset cancels the open turn, clears the transcript and starts a new thread.
func (c *Conversation) Reset() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.stopActiveTurn()
	c.transcript.reset()

	c.mu.Lock()
	c.threadID = uuid.NewString()
	c.mu.Unlock()
}

// Close cancels the open turn and waits for it. Later calls to RunTurn fail
// with ErrConversationClosed.
func (c *Conversation) Close() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.stopActiveTurn()
}

func (c *Conversation) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conversation) stopActiveTurn() {
	turn := c.ActiveTurn()
	if turn == nil {
		return
	}
	turn.Cancel()
	<-turn.Done()
}

func (c *Conversation) runTurn(ctx context.Context, turn *Turn, reducer *turnReducer, request agents.TurnRequest) {
	ctx, span := tracer.Start(ctx, "run turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("turn.id", turn.ID),
		attribute.String("thread.id", request.ThreadID),
		attribute.Int("request.messages", len(request.Messages)),
	)

	c.emit(events.NewTurnStarted(turn.ID))

	var streamErr error
	for event, err := range c.agent.Run(ctx, request) {
		if err != nil {
			streamErr = err
			break
		}
		c.emit(event)
		reducer.Apply(ctx, event)
		if reducer.Closed() {
			break
		}
	}

	var (
		outcome Outcome
		err     error
	)
	switch {
	case reducer.Closed() && reducer.Err() != nil:
		outcome, err = OutcomeFailed, reducer.Err()
	case reducer.Closed():
		outcome = OutcomeFinished
	case turn.IsCancelled() || ctx.Err() != nil:
		reducer.Cancel()
		outcome = OutcomeCancelled
	default:
		if streamErr == nil {
			streamErr = ErrStreamEnded
		}
		err = &TransportError{Started: reducer.Applied() > 0, Err: streamErr}
		reducer.Fail(err)
		outcome = OutcomeFailed
	}

	c.mu.Lock()
	if c.activeTurn == turn {
		c.activeTurn = nil
	}
	c.mu.Unlock()

	span.SetAttributes(attribute.String("turn.outcome", string(outcome)), attribute.Int("turn.events", reducer.Applied()))
	turnsFinished.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	switch outcome {
	case OutcomeFinished:
		c.emit(events.NewTurnCompleted(turn.ID))
	case OutcomeCancelled:
		c.logger.InfoContext(ctx, "turn cancelled", "turn_id", turn.ID, "events", reducer.Applied())
		c.emit(events.NewTurnCancelled(turn.ID))
	case OutcomeFailed:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "turn failed", "turn_id", turn.ID, "error", err)
		c.emit(events.NewTurnFailed(turn.ID, err))
	}

	turn.finalise(outcome, err)
}

func (c *Conversation) turnRequest(turnID string) agents.TurnRequest {
	snapshot := c.transcript.Snapshot()
	messages := make([]agents.Message, 0, len(snapshot.Messages))
	for _, message := range snapshot.Messages {
		messages = append(messages, requestMessages(message)...)
	}

	return agents.TurnRequest{
		ThreadID:       c.ThreadID(),
		RunID:          turnID,
		Messages:       messages,
		State:          maps.Clone(c.state),
		Tools:          slices.Clone(c.tools),
		Context:        slices.Clone(c.context),
		ForwardedProps: maps.Clone(c.forwardedProps),
	}
}

// requestMessages renders a transcript message as history. Assistant tool
// invocations become tool calls, followed by a tool message for each result.
func requestMessages(message Message) []agents.Message {
	if message.Role == RoleUser {
		return []agents.Message{{ID: message.ID, Role: agents.MessageRoleUser, Content: message.Content}}
	}
	if message.Content == "" && len(message.ToolInvocations) == 0 {
		return nil
	}

	assistant := agents.Message{ID: message.ID, Role: agents.MessageRoleAssistant, Content: message.Content}
	var results []agents.Message
	for _, invocation := range message.ToolInvocations {
		assistant.ToolCalls = append(assistant.ToolCalls, agents.ToolCall{
			ID:       invocation.ID,
			Type:     "function",
			Function: agents.ToolCallFunction{Name: invocation.Name, Arguments: invocation.Args},
		})
		if invocation.Result != nil {
			results = append(results, agents.Message{
				ID:         invocation.ID + "-result",
				Role:       agents.MessageRoleTool,
				Content:    *invocation.Result,
				ToolCallID: invocation.ID,
			})
		}
	}
	return append([]agents.Message{assistant}, results...)
}
