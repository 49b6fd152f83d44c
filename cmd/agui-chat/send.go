package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	conversation "github.com/koscakluka/agui-core/core"
	"github.com/spf13/cobra"
)

var (
	sendOutput string
	sendRecord string
)

var sendCmd = &cobra.Command{
	Use:   "send <prompt>",
	Short: "Send a single prompt and stream the response to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendOutput, "output", "o", "", "Write the final transcript as JSON to this file (- for stdout)")
	sendCmd.Flags().StringVar(&sendRecord, "record", "", "Record the agent's event stream to this file")
}

func runSend(cmd *cobra.Command, args []string) error {
	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := config.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	agent := config.newAgent()
	if sendRecord != "" {
		file, err := os.Create(sendRecord)
		if err != nil {
			return fmt.Errorf("failed to create recording: %w", err)
		}
		defer file.Close()
		agent = recordingAgent{agent: agent, w: file, logger: logger}
	}

	conv := conversation.New(agent, config.conversationOptions(logger)...)
	stopPrinting := newTranscriptPrinter(cmd.OutOrStdout(), conv.Transcript()).follow()
	turn, err := runOnce(cmd.Context(), conv, strings.Join(args, " "))
	stopPrinting()
	if err != nil {
		return err
	}
	return finishTurn(cmd, turn, conv.Transcript().Snapshot(), sendOutput)
}

// runOnce runs a single turn to completion and closes conv.
func runOnce(ctx context.Context, conv *conversation.Conversation, prompt string) (*conversation.Turn, error) {
	defer conv.Close()

	turn, err := conv.RunTurn(ctx, prompt)
	if err != nil {
		return nil, err
	}
	_ = turn.Wait(ctx)
	conv.Close()
	return turn, nil
}

// finishTurn optionally writes the final transcript as JSON and reports how
// the turn ended. A cancelled turn is not an error.
func finishTurn(cmd *cobra.Command, turn *conversation.Turn, snapshot conversation.TranscriptSnapshot, output string) error {
	if output != "" {
		if err := writeSnapshot(cmd.OutOrStdout(), output, snapshot); err != nil {
			return err
		}
	}
	if turn.Outcome() == conversation.OutcomeCancelled {
		fmt.Fprintln(cmd.ErrOrStderr(), renderOutcome(conversation.OutcomeCancelled, nil))
		return nil
	}
	return turn.Err()
}

func writeSnapshot(stdout io.Writer, path string, snapshot conversation.TranscriptSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// transcriptPrinter writes what the turn adds to the transcript as it
// happens. Only reduced state is printed, so events the transcript dropped
// never reach the output.
type transcriptPrinter struct {
	w          io.Writer
	transcript *conversation.Transcript

	printed     map[string]int
	announced   map[string]bool
	reported    map[string]bool
	lastMessage string
	midLine     bool
}

func newTranscriptPrinter(w io.Writer, transcript *conversation.Transcript) *transcriptPrinter {
	return &transcriptPrinter{
		w:          w,
		transcript: transcript,
		printed:    map[string]int{},
		announced:  map[string]bool{},
		reported:   map[string]bool{},
	}
}

// follow prints on every transcript change until the returned function is
// called. That function prints whatever is left and returns once nothing
// else will be written.
func (p *transcriptPrinter) follow() func() {
	changes, unsubscribe := p.transcript.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range changes {
			p.flush()
		}
	}()

	return func() {
		unsubscribe()
		<-done
		p.flush()
		p.endLine()
	}
}

func (p *transcriptPrinter) flush() {
	for _, message := range p.transcript.Snapshot().Messages {
		if message.Role != conversation.RoleAssistant {
			continue
		}

		if printed := p.printed[message.ID]; len(message.Content) > printed {
			if p.lastMessage != message.ID {
				p.endLine()
			}
			fmt.Fprint(p.w, message.Content[printed:])
			p.printed[message.ID] = len(message.Content)
			p.lastMessage = message.ID
			p.midLine = true
		}
		if message.Complete && p.lastMessage == message.ID {
			p.endLine()
		}

		for _, invocation := range message.ToolInvocations {
			if !p.announced[invocation.ID] {
				p.endLine()
				fmt.Fprintln(p.w, toolStyle.Render("⚙ "+invocation.Name))
				p.announced[invocation.ID] = true
			}
			if p.reported[invocation.ID] {
				continue
			}
			switch {
			case invocation.Result != nil:
				p.endLine()
				fmt.Fprintln(p.w, toolStyle.Render("→ "+*invocation.Result))
				p.reported[invocation.ID] = true
			case invocation.Status == conversation.ToolStatusError:
				p.endLine()
				fmt.Fprintln(p.w, errorStyle.Render("✗ "+invocation.Name+" failed"))
				p.reported[invocation.ID] = true
			}
		}
	}
}

func (p *transcriptPrinter) endLine() {
	if p.midLine {
		fmt.Fprintln(p.w)
		p.midLine = false
	}
}
