package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	conversation "github.com/koscakluka/agui-core/core"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat (default)",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	// The terminal belongs to the UI, so logs are dropped unless a file is set.
	logger, closeLog, err := config.newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	conv := conversation.New(config.newAgent(), config.conversationOptions(logger)...)
	defer conv.Close()

	ctx := cmd.Context()
	program := tea.NewProgram(newChatModel(ctx, conv), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat ended: %w", err)
	}
	return nil
}

type chatKeyMap struct {
	Send  key.Binding
	Stop  key.Binding
	Reset key.Binding
	Quit  key.Binding
}

func defaultChatKeyMap() chatKeyMap {
	return chatKeyMap{
		Send:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Stop:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		Reset: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "new thread")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k chatKeyMap) help() string {
	parts := make([]string, 0, 4)
	for _, binding := range []key.Binding{k.Send, k.Stop, k.Reset, k.Quit} {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

type transcriptChangedMsg struct {
	change conversation.Change
}

type turnFinishedMsg struct {
	turnID  string
	outcome conversation.Outcome
	err     error
}

type chatModel struct {
	ctx     context.Context
	conv    *conversation.Conversation
	changes <-chan conversation.Change
	stop    func()

	keys     chatKeyMap
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	turn   *conversation.Turn
	status string
}

func newChatModel(ctx context.Context, conv *conversation.Conversation) chatModel {
	input := textinput.New()
	input.Placeholder = "Send a message"
	input.Prompt = "> "
	input.Focus()

	// Letters go to the input, so the viewport only scrolls by page.
	vp := viewport.New(defaultWidth, 20)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	changes, stop := conv.Transcript().Subscribe()
	return chatModel{
		ctx:      ctx,
		conv:     conv,
		changes:  changes,
		stop:     stop,
		keys:     defaultChatKeyMap(),
		input:    input,
		viewport: vp,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForChanges())
}

// listenForChanges waits for the next transcript change.
func (m chatModel) listenForChanges() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case change, ok := <-m.changes:
			if !ok {
				return nil
			}
			return transcriptChangedMsg{change}
		}
	}
}

// waitForTurn reports when turn settles.
func (m chatModel) waitForTurn(turn *conversation.Turn) tea.Cmd {
	return func() tea.Msg {
		_ = turn.Wait(m.ctx)
		return turnFinishedMsg{turnID: turn.ID, outcome: turn.Outcome(), err: turn.Err()}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stop()
			m.conv.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Stop):
			if m.turn != nil {
				m.turn.Cancel()
			}
			return m, nil
		case key.Matches(msg, m.keys.Reset):
			m.conv.Reset()
			m.turn = nil
			m.status = statusStyle.Render("new thread " + m.conv.ThreadID())
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Send):
			return m.send()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-3, 1)
		m.ready = true
		m.refresh()

	case transcriptChangedMsg:
		m.refresh()
		cmds = append(cmds, m.listenForChanges())

	case turnFinishedMsg:
		if m.turn != nil && m.turn.ID == msg.turnID {
			m.turn = nil
			m.status = renderOutcome(msg.outcome, msg.err)
		}
		m.refresh()

	case spinner.TickMsg:
		if m.turn == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) send() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	m.input.Reset()

	turn, err := m.conv.RunTurn(m.ctx, content)
	if err != nil {
		m.status = errorStyle.Render("error: " + err.Error())
		return m, nil
	}
	m.turn = turn
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, m.waitForTurn(turn))
}

// refresh re-renders the transcript, following the tail of the conversation.
func (m *chatModel) refresh() {
	m.viewport.SetContent(renderTranscript(m.conv.Transcript().Snapshot(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	if !m.ready {
		return "starting…"
	}

	status := m.status
	if m.turn != nil {
		status = m.spinner.View() + " " + statusStyle.Render("agent is responding")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		status,
		m.input.View(),
		statusStyle.Render(m.keys.help()),
	)
}
