package conversation

import (
	"log/slog"
	"maps"

	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/events"
)

type Option func(*Conversation)

// WithThreadID continues an existing thread instead of starting a new one.
func WithThreadID(threadID string) Option {
	return func(c *Conversation) {
		if threadID != "" {
			c.threadID = threadID
		}
	}
}

// WithTools advertises frontend tools with every turn request.
func WithTools(tools ...agents.Tool) Option {
	return func(c *Conversation) { c.tools = append(c.tools, tools...) }
}

func WithContext(entries ...agents.ContextEntry) Option {
	return func(c *Conversation) { c.context = append(c.context, entries...) }
}

func WithState(state map[string]any) Option {
	return func(c *Conversation) { c.state = maps.Clone(state) }
}

func WithForwardedProps(props map[string]any) Option {
	return func(c *Conversation) {
		if c.forwardedProps == nil {
			c.forwardedProps = map[string]any{}
		}
		maps.Copy(c.forwardedProps, props)
	}
}

// WithAgentID selects the agent that runs the conversation's turns.
func WithAgentID(agentID string) Option {
	return WithForwardedProps(map[string]any{agents.ForwardedPropAgentID: agentID})
}

// WithEventCallback receives every protocol event before it is applied and
// every turn state event.
func WithEventCallback(callback func(events.Event)) Option {
	return func(c *Conversation) { c.callbacks.onEvent = callback }
}

// WithTurnFinishedCallback is called once per turn after it closed.
func WithTurnFinishedCallback(callback func(turnID string, outcome Outcome, err error)) Option {
	return func(c *Conversation) { c.callbacks.onTurnFinished = callback }
}

// WithMessageCompletedCallback receives a copy of every assistant message the
// agent ended.
func WithMessageCompletedCallback(callback func(Message)) Option {
	return func(c *Conversation) { c.onMessageCompleted = callback }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) {
		if logger != nil {
			c.logger = logger
		}
	}
}
