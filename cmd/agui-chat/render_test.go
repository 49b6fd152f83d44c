package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	conversation "github.com/koscakluka/agui-core/core"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestRenderTranscript(t *testing.T) {
	snapshot := conversation.TranscriptSnapshot{
		Version: 7,
		Messages: []conversation.Message{
			{ID: "u1", Role: conversation.RoleUser, Content: "What's the weather in Paris?", Complete: true},
			{
				ID:      "m1",
				Role:    conversation.RoleAssistant,
				Content: "Let me check.",
				ToolInvocations: []conversation.ToolInvocation{
					{ID: "t1", Name: "weather", Args: `{"city":"Paris"}`, Result: ptr("18C and sunny"), Status: conversation.ToolStatusComplete},
					{ID: "t2", Name: "alerts", Args: `{}`, Status: conversation.ToolStatusError},
				},
				Complete: true,
			},
		},
	}

	out := renderTranscript(snapshot, 80)

	assert.Contains(t, out, "You")
	assert.Contains(t, out, "What's the weather in Paris?")
	assert.Contains(t, out, "Agent")
	assert.Contains(t, out, "Let me check.")
	assert.Contains(t, out, `✓ weather({"city":"Paris"})`)
	assert.Contains(t, out, "→ 18C and sunny")
	assert.Contains(t, out, "✗ alerts({})")
	assert.Less(t, strings.Index(out, "Paris?"), strings.Index(out, "Let me check."))
}

func TestRenderTranscriptWrapsContent(t *testing.T) {
	snapshot := conversation.TranscriptSnapshot{Messages: []conversation.Message{
		{ID: "m1", Role: conversation.RoleAssistant, Content: "one two three four five six seven eight"},
	}}

	out := renderTranscript(snapshot, 10)

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 10, "line %q", line)
	}
}

func TestRenderToolInvocationTruncatesLongArgs(t *testing.T) {
	invocation := conversation.ToolInvocation{
		Name:   "search",
		Args:   strings.Repeat("x", 200),
		Status: conversation.ToolStatusRunning,
	}

	out := renderToolInvocation(invocation, 40)

	assert.Contains(t, out, "… search(")
	assert.NotContains(t, out, strings.Repeat("x", 40))
}

func TestRenderOutcome(t *testing.T) {
	assert.Empty(t, renderOutcome(conversation.OutcomeFinished, nil))
	assert.Contains(t, renderOutcome(conversation.OutcomeCancelled, nil), "stopped")
	assert.Contains(t, renderOutcome(conversation.OutcomeFailed, errors.New("boom")), "error: boom")
}
