package events

import (
	"errors"
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "run started", event: NewRunStarted("thread", "run"), expected: KindRunStarted},
		{name: "run finished", event: NewRunFinished("thread", "run"), expected: KindRunFinished},
		{name: "run error", event: NewRunError("boom", ""), expected: KindRunError},
		{name: "text message start", event: NewTextMessageStart("m1", "assistant"), expected: KindTextMessageStart},
		{name: "text message content", event: NewTextMessageContent("m1", "hi"), expected: KindTextMessageContent},
		{name: "text message end", event: NewTextMessageEnd("m1"), expected: KindTextMessageEnd},
		{name: "tool call start", event: NewToolCallStart("t1", "search", ""), expected: KindToolCallStart},
		{name: "tool call args", event: NewToolCallArgs("t1", "{}"), expected: KindToolCallArgs},
		{name: "tool call end", event: NewToolCallEnd("t1"), expected: KindToolCallEnd},
		{name: "tool call result", event: NewToolCallResult("t1", "42"), expected: KindToolCallResult},
		{name: "turn started", event: NewTurnStarted("turn"), expected: KindTurnStarted},
		{name: "turn completed", event: NewTurnCompleted("turn"), expected: KindTurnCompleted},
		{name: "turn failed", event: NewTurnFailed("turn", errors.New("boom")), expected: KindTurnFailed},
		{name: "turn cancelled", event: NewTurnCancelled("turn"), expected: KindTurnCancelled},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected %q to be timestamped", testCase.expected)
			}
		})
	}
}

func TestNewBaseAtKeepsProducerTimestamp(t *testing.T) {
	producerTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if got := NewBaseAt(KindRunStarted, producerTime).Timestamp(); !got.Equal(producerTime) {
		t.Fatalf("expected producer timestamp %v, got %v", producerTime, got)
	}
	if got := NewBaseAt(KindRunStarted, time.Time{}).Timestamp(); got.IsZero() {
		t.Fatalf("expected zero producer timestamp to fall back to creation time")
	}
}
