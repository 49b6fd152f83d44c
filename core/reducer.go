package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/koscakluka/agui-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type turnState int

const (
	turnIdle turnState = iota
	turnOpen
	turnClosed
)

func (s turnState) String() string {
	switch s {
	case turnIdle:
		return "idle"
	case turnOpen:
		return "open"
	default:
		return "closed"
	}
}

var (
	errEventAfterClose     = errors.New("event after turn closed")
	errImplicitOpen        = errors.New("event before run started")
	errDuplicateRunStarted = errors.New("duplicate run started")
	errDuplicateMessage    = errors.New("duplicate message start")
	errContentAfterEnd     = errors.New("content after message end")
	errDuplicateToolCall   = errors.New("duplicate tool call start")
	errArgsAfterEnd        = errors.New("args after tool call end")
	errDuplicateResult     = errors.New("result for finished tool call")
	errUnsupportedEvent    = errors.New("unsupported event")
)

// toolRef locates an invocation: the transcript index of its parent message and
// its position among the parent's invocations.
type toolRef struct {
	message    int
	invocation int
}

// turnReducer folds the events of a single turn into the transcript. It is not
// safe for concurrent use; the turn's decode loop is its only caller.
type turnReducer struct {
	turnID     string
	transcript *Transcript
	logger     *slog.Logger

	onMessageCompleted func(Message)

	state      turnState
	runStarted bool
	applied    int
	err        error

	// messages indexes this turn's assistant messages by producer id.
	messages map[string]int
	tools    map[string]toolRef
	// toolOrder keeps tool call ids in registration order.
	toolOrder []string

	openMessage string
	// placeholder is the id of a synthesized parent still waiting for the
	// producer to name its message.
	placeholder string
}

func newTurnReducer(turnID string, transcript *Transcript, logger *slog.Logger, onMessageCompleted func(Message)) *turnReducer {
	if onMessageCompleted == nil {
		onMessageCompleted = func(Message) {}
	}
	return &turnReducer{
		turnID:             turnID,
		transcript:         transcript,
		logger:             logger,
		onMessageCompleted: onMessageCompleted,
		messages:           map[string]int{},
		tools:              map[string]toolRef{},
	}
}

// Apply reduces a single event. Events that cannot be applied as sent are
// logged and dropped; Apply never fails.
func (r *turnReducer) Apply(ctx context.Context, event events.Event) {
	if r.state == turnClosed {
		r.anomaly(ctx, event, errEventAfterClose)
		return
	}
	if r.state == turnIdle {
		if _, ok := event.(events.RunStarted); !ok {
			r.anomaly(ctx, event, errImplicitOpen)
		}
		r.state = turnOpen
	}

	r.applied++
	eventsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("event.kind", string(event.Kind()))))

	switch e := event.(type) {
	case events.RunStarted:
		if r.runStarted {
			r.anomaly(ctx, event, errDuplicateRunStarted)
			return
		}
		r.runStarted = true
	case events.RunFinished:
		r.close()
	case events.RunError:
		r.fail(&ProtocolError{Message: e.Message, Code: e.Code})
	case events.TextMessageStart:
		r.startMessage(ctx, e)
	case events.TextMessageContent:
		r.appendContent(ctx, e)
	case events.TextMessageEnd:
		r.endMessage(ctx, e)
	case events.ToolCallStart:
		r.startToolCall(ctx, e)
	case events.ToolCallArgs:
		r.appendArgs(ctx, e)
	case events.ToolCallEnd:
		r.advanceToolCall(ctx, event, e.ToolCallID, ToolStatusPending, nil)
	case events.ToolCallResult:
		r.advanceToolCall(ctx, event, e.ToolCallID, ToolStatusComplete, &e.Content)
	default:
		r.anomaly(ctx, event, errUnsupportedEvent)
	}
}

func (r *turnReducer) Closed() bool { return r.state == turnClosed }

// Err is the failure the turn closed with, nil when it finished or was
// cancelled.
func (r *turnReducer) Err() error { return r.err }

// Applied reports how many events were applied before the turn closed.
func (r *turnReducer) Applied() int { return r.applied }

// Cancel closes the turn leaving every entity as it is.
func (r *turnReducer) Cancel() {
	r.close()
}

// Fail closes the turn with err. Invocations that had not finished are marked
// as failed.
func (r *turnReducer) Fail(err error) {
	r.fail(err)
}

func (r *turnReducer) close() {
	r.state = turnClosed
}

func (r *turnReducer) fail(err error) {
	if r.state == turnClosed {
		return
	}
	r.err = err
	r.close()

	for _, id := range r.toolOrder {
		ref := r.tools[id]
		r.transcript.update(ref.message, ChangeToolInvocationUpdated, id, func(m *Message) bool {
			invocation := &m.ToolInvocations[ref.invocation]
			if !invocation.Status.advances(ToolStatusError) {
				return false
			}
			invocation.Status = ToolStatusError
			return true
		})
	}
}

func (r *turnReducer) startMessage(ctx context.Context, e events.TextMessageStart) {
	if _, ok := r.messages[e.MessageID]; ok {
		if r.placeholder != e.MessageID {
			r.anomaly(ctx, e, errDuplicateMessage)
			return
		}
		r.placeholder = ""
		r.openMessage = e.MessageID
		return
	}

	if r.placeholder != "" {
		index := r.messages[r.placeholder]
		r.transcript.update(index, ChangeMessageUpdated, "", func(m *Message) bool {
			m.ID = e.MessageID
			return true
		})
		r.logger.DebugContext(ctx, "placeholder message identified", "placeholder_id", r.placeholder, "message_id", e.MessageID, "turn_id", r.turnID)
		delete(r.messages, r.placeholder)
		r.messages[e.MessageID] = index
		r.placeholder = ""
		r.openMessage = e.MessageID
		return
	}

	r.messages[e.MessageID] = r.transcript.append(Message{ID: e.MessageID, Role: RoleAssistant, TurnID: r.turnID})
	r.openMessage = e.MessageID
}

func (r *turnReducer) appendContent(ctx context.Context, e events.TextMessageContent) {
	index, ok := r.messages[e.MessageID]
	if !ok {
		r.anomaly(ctx, e, fmt.Errorf("%w: message %q", ErrUnknownReference, e.MessageID))
		return
	}

	ended := false
	r.transcript.update(index, ChangeMessageUpdated, "", func(m *Message) bool {
		if m.Complete {
			ended = true
			return false
		}
		if e.Delta == "" {
			return false
		}
		m.Content += e.Delta
		return true
	})
	if ended {
		r.anomaly(ctx, e, errContentAfterEnd)
	}
}

func (r *turnReducer) endMessage(ctx context.Context, e events.TextMessageEnd) {
	index, ok := r.messages[e.MessageID]
	if !ok {
		r.anomaly(ctx, e, fmt.Errorf("%w: message %q", ErrUnknownReference, e.MessageID))
		return
	}

	completed := r.transcript.update(index, ChangeMessageUpdated, "", func(m *Message) bool {
		if m.Complete {
			return false
		}
		m.Complete = true
		return true
	})
	if r.openMessage == e.MessageID {
		r.openMessage = ""
	}
	if r.placeholder == e.MessageID {
		r.placeholder = ""
	}
	if !completed {
		return
	}
	if message, ok := r.transcript.message(index); ok {
		r.onMessageCompleted(message)
	}
}

func (r *turnReducer) startToolCall(ctx context.Context, e events.ToolCallStart) {
	if _, ok := r.tools[e.ToolCallID]; ok {
		r.anomaly(ctx, e, errDuplicateToolCall)
		return
	}

	parent := r.resolveParent(ctx, e.ParentMessageID, e.ToolCallID)
	position := -1
	r.transcript.update(parent, ChangeToolInvocationAdded, e.ToolCallID, func(m *Message) bool {
		m.ToolInvocations = append(m.ToolInvocations, ToolInvocation{
			ID:     e.ToolCallID,
			Name:   e.ToolCallName,
			Status: ToolStatusRunning,
		})
		position = len(m.ToolInvocations) - 1
		return true
	})
	if position < 0 {
		return
	}
	r.tools[e.ToolCallID] = toolRef{message: parent, invocation: position}
	r.toolOrder = append(r.toolOrder, e.ToolCallID)
}

// resolveParent returns the transcript index of the message a tool call
// belongs to: the named parent when this turn knows it, else the open message,
// else a synthesized placeholder.
func (r *turnReducer) resolveParent(ctx context.Context, parentID, toolCallID string) int {
	if index, ok := r.messages[parentID]; ok && parentID != "" {
		return index
	}
	if r.openMessage != "" {
		return r.messages[r.openMessage]
	}
	if r.placeholder != "" {
		return r.messages[r.placeholder]
	}

	id := parentID
	if id == "" {
		id = placeholderID(r.turnID, toolCallID)
	}
	index := r.transcript.append(Message{ID: id, Role: RoleAssistant, TurnID: r.turnID})
	r.messages[id] = index
	r.placeholder = id
	r.logger.DebugContext(ctx, "synthesized placeholder message", "message_id", id, "turn_id", r.turnID)
	return index
}

func (r *turnReducer) appendArgs(ctx context.Context, e events.ToolCallArgs) {
	ref, ok := r.tools[e.ToolCallID]
	if !ok {
		r.anomaly(ctx, e, fmt.Errorf("%w: tool call %q", ErrUnknownReference, e.ToolCallID))
		return
	}

	ended := false
	r.transcript.update(ref.message, ChangeToolInvocationUpdated, e.ToolCallID, func(m *Message) bool {
		invocation := &m.ToolInvocations[ref.invocation]
		if invocation.Status != ToolStatusRunning {
			ended = true
			return false
		}
		if e.Delta == "" {
			return false
		}
		invocation.Args += e.Delta
		return true
	})
	if ended {
		r.anomaly(ctx, e, errArgsAfterEnd)
	}
}

func (r *turnReducer) advanceToolCall(ctx context.Context, event events.Event, toolCallID string, status ToolStatus, result *string) {
	ref, ok := r.tools[toolCallID]
	if !ok {
		r.anomaly(ctx, event, fmt.Errorf("%w: tool call %q", ErrUnknownReference, toolCallID))
		return
	}

	stale := false
	r.transcript.update(ref.message, ChangeToolInvocationUpdated, toolCallID, func(m *Message) bool {
		invocation := &m.ToolInvocations[ref.invocation]
		if !invocation.Status.advances(status) {
			stale = result != nil
			return false
		}
		invocation.Status = status
		if result != nil {
			content := *result
			invocation.Result = &content
		}
		return true
	})
	if stale {
		r.anomaly(ctx, event, errDuplicateResult)
	}
}

func (r *turnReducer) anomaly(ctx context.Context, event events.Event, err error) {
	reason := err.Error()
	if errors.Is(err, ErrUnknownReference) {
		reason = ErrUnknownReference.Error()
	}
	anomalies.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.kind", string(event.Kind())),
		attribute.String("reason", reason),
	))
	r.logger.WarnContext(ctx, "event not applied as sent",
		"kind", event.Kind(),
		"turn_id", r.turnID,
		"state", r.state.String(),
		"error", err,
	)
}

// placeholderID names a synthesized parent after the turn and the tool call
// that needed it, so replaying a turn yields the same transcript.
func placeholderID(turnID, toolCallID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(turnID+"/"+toolCallID)).String()
}
