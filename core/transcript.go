package conversation

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/jinzhu/copier"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ToolStatus string

const (
	ToolStatusRunning  ToolStatus = "running"
	ToolStatusPending  ToolStatus = "pending"
	ToolStatusComplete ToolStatus = "complete"
	ToolStatusError    ToolStatus = "error"
)

// advances reports whether moving from s to next keeps the status monotonic.
// Complete and error are terminal.
func (s ToolStatus) advances(next ToolStatus) bool {
	return s.rank() < next.rank()
}

func (s ToolStatus) rank() int {
	switch s {
	case ToolStatusRunning:
		return 0
	case ToolStatusPending:
		return 1
	default:
		return 2
	}
}

type ToolInvocation struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Args   string     `json:"args"`
	Result *string    `json:"result,omitempty"`
	Status ToolStatus `json:"status"`
}

type Message struct {
	ID              string           `json:"id"`
	Role            Role             `json:"role"`
	Content         string           `json:"content"`
	ToolInvocations []ToolInvocation `json:"toolInvocations"`
	// Complete is set once the producer ended the message. User messages are
	// complete when added.
	Complete bool `json:"complete"`
	// TurnID is the turn that produced the message.
	TurnID string `json:"turnId,omitempty"`
}

type ChangeKind string

const (
	ChangeMessageAdded          ChangeKind = "message_added"
	ChangeMessageUpdated        ChangeKind = "message_updated"
	ChangeToolInvocationAdded   ChangeKind = "tool_invocation_added"
	ChangeToolInvocationUpdated ChangeKind = "tool_invocation_updated"
	ChangeReset                 ChangeKind = "reset"
)

// Change notifies a subscriber that the transcript moved to Version.
type Change struct {
	Version    uint64
	Kind       ChangeKind
	MessageID  string
	ToolCallID string
}

// TranscriptSnapshot is a deep copy of the transcript at Version.
type TranscriptSnapshot struct {
	Version  uint64    `json:"version"`
	Messages []Message `json:"messages"`
}

func (s TranscriptSnapshot) MarshalJSON() ([]byte, error) {
	type transcriptSnapshot TranscriptSnapshot
	wire := transcriptSnapshot(s)
	wire.Messages = slices.Clone(wire.Messages)
	if wire.Messages == nil {
		wire.Messages = []Message{}
	}
	for i := range wire.Messages {
		if wire.Messages[i].ToolInvocations == nil {
			wire.Messages[i].ToolInvocations = []ToolInvocation{}
		}
	}
	return json.Marshal(wire)
}

// Transcript holds the ordered messages of a conversation. It has a single
// writer, the conversation's active turn, and any number of readers.
type Transcript struct {
	mu sync.RWMutex

	version  uint64
	messages []Message

	subscribers      map[int]chan Change
	nextSubscription int
}

func NewTranscript() *Transcript {
	return &Transcript{subscribers: map[int]chan Change{}}
}

func (t *Transcript) Snapshot() TranscriptSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := TranscriptSnapshot{Version: t.version}
	if err := copier.CopyWithOption(&snapshot.Messages, &t.messages, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy transcript", "error", err)
	}
	return snapshot
}

func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Subscribe returns a channel notified after every change and a function that
// ends the subscription.
//
// Delivery never blocks the writer. A subscriber that falls behind only sees
// the latest change, so readers should take a fresh Snapshot on every
// notification instead of replaying changes.
func (t *Transcript) Subscribe() (<-chan Change, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSubscription
	t.nextSubscription++
	changes := make(chan Change, 1)
	t.subscribers[id] = changes

	var once sync.Once
	return changes, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, id)
			close(changes)
		})
	}
}

func (t *Transcript) message(index int) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 0 || index >= len(t.messages) {
		return Message{}, false
	}
	var message Message
	if err := copier.CopyWithOption(&message, &t.messages[index], copier.Option{DeepCopy: true}); err != nil {
		return t.messages[index], true
	}
	return message, true
}

func (t *Transcript) append(message Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, message)
	t.notify(Change{Kind: ChangeMessageAdded, MessageID: message.ID})
	return len(t.messages) - 1
}

// update applies fn to the message at index. fn reports whether it changed
// anything; unchanged messages do not bump the version.
func (t *Transcript) update(index int, kind ChangeKind, toolCallID string, fn func(*Message) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.messages) {
		return false
	}
	message := &t.messages[index]
	if !fn(message) {
		return false
	}
	t.notify(Change{Kind: kind, MessageID: message.ID, ToolCallID: toolCallID})
	return true
}

func (t *Transcript) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = nil
	t.notify(Change{Kind: ChangeReset})
}

// notify must be called with mu held.
func (t *Transcript) notify(change Change) {
	t.version++
	change.Version = t.version
	for _, changes := range t.subscribers {
		select {
		case changes <- change:
			continue
		default:
		}
		select {
		case <-changes:
		default:
		}
		select {
		case changes <- change:
		default:
		}
	}
}
