// Command agui-chat talks to an AG-UI agent from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	conversation "github.com/koscakluka/agui-core/core"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agui-chat",
	Short: "Chat with an AG-UI agent",
	Long: `agui-chat streams turns from an agent service speaking the AG-UI event
protocol over HTTP server-sent events or WebSocket, and renders the live
transcript including tool invocations.`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: <user config dir>/agui-chat/config.yaml)")
	addConfigFlags(flags)

	rootCmd.AddCommand(chatCmd, sendCmd, replayCmd, schemaCmd)
}

// addConfigFlags registers the flags that override config fields.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("endpoint", "", "Agent endpoint URL")
	flags.String("transport", "", "Transport to use: http or ws")
	flags.String("agent-id", "", "Agent that runs the turns")
	flags.String("thread-id", "", "Thread to continue instead of starting a new one")
	flags.StringArray("header", nil, "Extra request header as key=value (repeatable)")
	flags.String("log-file", "", "Write logs to this file")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Duration("timeout", 0, "How long the agent may take to start responding")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// resolveConfig merges the config file, AGUI_* environment variables and the
// command line flags.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	path, explicit := configPath, configPath != ""
	if !explicit {
		path = defaultConfigPath()
	}

	config, err := loadConfig(path, explicit)
	if err != nil {
		return config, err
	}
	if err := config.applyEnv(os.LookupEnv); err != nil {
		return config, err
	}
	if err := config.applyFlags(cmd.Flags()); err != nil {
		return config, err
	}
	return config, config.validate()
}

func (c *Config) applyFlags(flags *pflag.FlagSet) error {
	stringFlags := map[string]*string{
		"endpoint":  &c.Endpoint,
		"transport": &c.Transport,
		"agent-id":  &c.AgentID,
		"thread-id": &c.ThreadID,
		"log-file":  &c.LogFile,
		"log-level": &c.LogLevel,
	}
	for name, target := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if flags.Changed("timeout") {
		timeout, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		c.Timeout = timeout
	}
	if flags.Changed("header") {
		pairs, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		headers, err := parseHeaders(pairs)
		if err != nil {
			return fmt.Errorf("invalid --header: %w", err)
		}
		c.addHeaders(headers)
	}
	return nil
}

func (c Config) conversationOptions(logger *slog.Logger) []conversation.Option {
	opts := []conversation.Option{conversation.WithLogger(logger)}
	if c.ThreadID != "" {
		opts = append(opts, conversation.WithThreadID(c.ThreadID))
	}
	if c.AgentID != "" {
		opts = append(opts, conversation.WithAgentID(c.AgentID))
	}
	return opts
}
