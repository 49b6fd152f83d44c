package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	conversation "github.com/koscakluka/agui-core/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatModel(t *testing.T) chatModel {
	t.Helper()
	conv := conversation.New(sequenceAgent(toolSequence()), conversation.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(conv.Close)

	model, _ := newChatModel(context.Background(), conv).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(chatModel)
}

func TestChatModelSendStartsTurn(t *testing.T) {
	m := newTestChatModel(t)
	m.input.SetValue("weather?")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(chatModel)
	require.NotNil(t, m.turn)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.turn.Wait(ctx))

	model, _ = m.Update(turnFinishedMsg{turnID: m.turn.ID, outcome: m.turn.Outcome()})
	m = model.(chatModel)
	assert.Nil(t, m.turn)

	view := m.View()
	assert.Contains(t, view, "weather?")
	assert.Contains(t, view, "Checking")
}

func TestChatModelIgnoresEmptyInput(t *testing.T) {
	m := newTestChatModel(t)
	m.input.SetValue("   ")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, model.(chatModel).turn)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.conv.Transcript().Len())
}

func TestChatModelResetStartsNewThread(t *testing.T) {
	m := newTestChatModel(t)
	threadID := m.conv.ThreadID()

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = model.(chatModel)

	assert.NotEqual(t, threadID, m.conv.ThreadID())
	assert.Contains(t, m.View(), m.conv.ThreadID())
}

func TestChatModelQuitClosesConversation(t *testing.T) {
	m := newTestChatModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, err := m.conv.RunTurn(context.Background(), "late")
	assert.ErrorIs(t, err, conversation.ErrConversationClosed)
}
