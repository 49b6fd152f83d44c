package events

import "time"

type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

// NewBaseAt creates a base stamped with the producer supplied time. A zero
// time falls back to the time of creation.
func NewBaseAt(kind Kind, timestamp time.Time) Base {
	if timestamp.IsZero() {
		return NewBase(kind)
	}
	return Base{kind: kind, timestamp: timestamp}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
