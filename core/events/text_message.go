package events

const (
	// KindTextMessageStart identifies the start of an assistant message.
	KindTextMessageStart Kind = "text_message.start"
	// KindTextMessageContent identifies a message content delta.
	KindTextMessageContent Kind = "text_message.content"
	// KindTextMessageEnd identifies the end of a message.
	KindTextMessageEnd Kind = "text_message.end"
)

// TextMessageStart marks the start of a message.
type TextMessageStart struct {
	Base
	MessageID string
	Role      string
}

// NewTextMessageStart creates a text message start event.
func NewTextMessageStart(messageID, role string) TextMessageStart {
	return TextMessageStart{Base: NewBase(KindTextMessageStart), MessageID: messageID, Role: role}
}

// TextMessageContent carries a content delta for a message.
type TextMessageContent struct {
	Base
	MessageID string
	Delta     string
}

// NewTextMessageContent creates a text message content event.
func NewTextMessageContent(messageID, delta string) TextMessageContent {
	return TextMessageContent{Base: NewBase(KindTextMessageContent), MessageID: messageID, Delta: delta}
}

// TextMessageEnd marks the end of a message.
type TextMessageEnd struct {
	Base
	MessageID string
}

// NewTextMessageEnd creates a text message end event.
func NewTextMessageEnd(messageID string) TextMessageEnd {
	return TextMessageEnd{Base: NewBase(KindTextMessageEnd), MessageID: messageID}
}
