package main

import (
	"fmt"

	conversation "github.com/koscakluka/agui-core/core"
	"github.com/spf13/cobra"
)

var (
	replayPrompt string
	replayOutput string
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording>",
	Short: "Replay a recorded event stream and print the resulting transcript",
	Long: `replay feeds a file of SSE frames, such as one written by send --record,
through the same reducer a live turn uses. No agent is contacted.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayPrompt, "prompt", "(replay)", "User message that opens the replayed turn")
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "", "Write the final transcript as JSON to this file (- for stdout)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := config.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	conv := conversation.New(fileAgent{path: args[0]}, config.conversationOptions(logger)...)
	turn, err := runOnce(cmd.Context(), conv, replayPrompt)
	if err != nil {
		return err
	}

	snapshot := conv.Transcript().Snapshot()
	if replayOutput != "-" {
		fmt.Fprintln(cmd.OutOrStdout(), renderTranscript(snapshot, defaultWidth))
	}
	return finishTurn(cmd, turn, snapshot, replayOutput)
}
