package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	conversation "github.com/koscakluka/agui-core/core"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const defaultWidth = 80

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	toolStyle           = lipgloss.NewStyle().Faint(true)
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle         = lipgloss.NewStyle().Faint(true).Italic(true)
)

var toolStatusMarks = map[conversation.ToolStatus]string{
	conversation.ToolStatusRunning:  "…",
	conversation.ToolStatusPending:  "⋯",
	conversation.ToolStatusComplete: "✓",
	conversation.ToolStatusError:    "✗",
}

func renderTranscript(snapshot conversation.TranscriptSnapshot, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	for i, message := range snapshot.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		renderMessage(&b, message, width)
	}
	return b.String()
}

func renderMessage(b *strings.Builder, message conversation.Message, width int) {
	label := assistantLabelStyle.Render("Agent")
	if message.Role == conversation.RoleUser {
		label = userLabelStyle.Render("You")
	}
	b.WriteString(label)
	b.WriteString("\n")

	if message.Content != "" {
		b.WriteString(wordwrap.String(message.Content, width))
		b.WriteString("\n")
	}
	for _, invocation := range message.ToolInvocations {
		b.WriteString(renderToolInvocation(invocation, width))
		b.WriteString("\n")
	}
}

func renderToolInvocation(invocation conversation.ToolInvocation, width int) string {
	line := fmt.Sprintf("  %s %s(%s)", toolStatusMarks[invocation.Status], invocation.Name, invocation.Args)
	line = truncate.StringWithTail(line, uint(width), "…")
	if invocation.Result != nil {
		result := truncate.StringWithTail("    → "+*invocation.Result, uint(width), "…")
		line += "\n" + result
	}
	if invocation.Status == conversation.ToolStatusError {
		return errorStyle.Render(line)
	}
	return toolStyle.Render(line)
}

func renderOutcome(outcome conversation.Outcome, err error) string {
	switch outcome {
	case conversation.OutcomeRunning:
		return ""
	case conversation.OutcomeFailed:
		return errorStyle.Render("error: " + err.Error())
	case conversation.OutcomeCancelled:
		return statusStyle.Render("stopped")
	default:
		return ""
	}
}
