package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/agents/agui"
	"github.com/koscakluka/agui-core/core/agents/aguiws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/yaml.v3"
)

const (
	transportHTTP      = "http"
	transportWebSocket = "ws"

	envPrefix = "AGUI_"
)

// Config holds the client settings read from the config file, the
// environment and the command line, in increasing order of precedence.
type Config struct {
	Endpoint  string            `yaml:"endpoint"`
	Transport string            `yaml:"transport"`
	AgentID   string            `yaml:"agent_id"`
	ThreadID  string            `yaml:"thread_id"`
	Headers   map[string]string `yaml:"headers"`
	LogFile   string            `yaml:"log_file"`
	LogLevel  string            `yaml:"log_level"`
	// Timeout bounds how long the agent may take to start responding.
	Timeout time.Duration `yaml:"timeout"`
}

func defaultConfig() Config {
	return Config{
		Endpoint:  "http://localhost:8000/agui",
		Transport: transportHTTP,
		LogLevel:  "info",
		Timeout:   30 * time.Second,
	}
}

// defaultConfigPath is the config file used when none is given.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "agui-chat", "config.yaml")
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// applyEnv overrides config with AGUI_* variables. Headers are given as a
// comma separated list of key=value pairs.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	fields := map[string]*string{
		"ENDPOINT":  &c.Endpoint,
		"TRANSPORT": &c.Transport,
		"AGENT_ID":  &c.AgentID,
		"THREAD_ID": &c.ThreadID,
		"LOG_FILE":  &c.LogFile,
		"LOG_LEVEL": &c.LogLevel,
	}
	for name, target := range fields {
		if value, ok := lookup(envPrefix + name); ok {
			*target = value
		}
	}

	if value, ok := lookup(envPrefix + "TIMEOUT"); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", envPrefix, err)
		}
		c.Timeout = timeout
	}
	if value, ok := lookup(envPrefix + "HEADERS"); ok && value != "" {
		headers, err := parseHeaders(splitList(value))
		if err != nil {
			return fmt.Errorf("invalid %sHEADERS: %w", envPrefix, err)
		}
		c.addHeaders(headers)
	}
	return nil
}

func (c *Config) addHeaders(headers map[string]string) {
	if c.Headers == nil {
		c.Headers = map[string]string{}
	}
	for key, value := range headers {
		c.Headers[key] = value
	}
}

func (c Config) validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	switch c.Transport {
	case transportHTTP, transportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q, expected %q or %q", c.Transport, transportHTTP, transportWebSocket)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

func (c Config) newAgent() agents.Agent {
	switch c.Transport {
	case transportWebSocket:
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = c.Timeout
		opts := []aguiws.ClientOption{aguiws.WithDialer(&dialer)}
		for key, value := range c.Headers {
			opts = append(opts, aguiws.WithHeader(key, value))
		}
		return aguiws.NewClient(c.Endpoint, opts...)
	default:
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = c.Timeout
		opts := []agui.ClientOption{agui.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(transport)})}
		for key, value := range c.Headers {
			opts = append(opts, agui.WithHeader(key, value))
		}
		return agui.NewClient(c.Endpoint, opts...)
	}
}

// newLogger writes to the configured log file, or to fallback when there is
// none. The returned function closes the file.
func (c Config) newLogger(fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if c.LogFile == "" {
		return slog.New(slog.NewTextHandler(fallback, &slog.HandlerOptions{Level: level})), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})), func() { _ = file.Close() }, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", value, err)
	}
	return level, nil
}

func parseHeaders(pairs []string) (map[string]string, error) {
	headers := map[string]string{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("header %q is not in key=value form", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
