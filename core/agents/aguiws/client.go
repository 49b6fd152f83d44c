// Package aguiws runs turns over a WebSocket connection. The turn request is
// sent as the first text message and every following text message carries a
// single event frame.
package aguiws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/events"
	"github.com/koscakluka/agui-core/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	endMessage = "[DONE]"

	closeTimeout = time.Second
)

var _ agents.Agent = (*Client)(nil)

type Client struct {
	endpoint string
	dialer   *websocket.Dialer
	header   http.Header
}

type ClientOption func(*Client)

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithHeader adds a header sent with the opening handshake.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.header.Add(key, value) }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	client := &Client{
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
		header:   http.Header{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Run opens a connection for a single turn and streams the decoded events.
//
// The stream ends cleanly when the server closes the connection normally or
// sends the end of stream sentinel. Cancelling ctx closes the connection.
func (c *Client) Run(ctx context.Context, request agents.TurnRequest) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "aguiws stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.thread_id", request.ThreadID),
			attribute.String("request.run_id", request.RunID),
			attribute.String("request.url", c.endpoint),
		)

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
		if err != nil {
			if resp != nil {
				fail(handshakeError(resp))
				return
			}
			fail(fmt.Errorf("failed to open websocket: %w", err))
			return
		}
		defer conn.Close()
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		if err := conn.WriteJSON(request); err != nil {
			fail(fmt.Errorf("failed to send turn request: %w", err))
			return
		}

		defer func() {
			if ctx.Err() != nil {
				return
			}
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(closeTimeout)); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				logger.DebugContext(ctx, "failed to send close message", "error", err)
			}
		}()

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = errors.Join(ctxErr, err)
				}
				fail(fmt.Errorf("error reading event stream: %w", err))
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}

			payload := bytes.TrimSpace(msg)
			if string(payload) == endMessage {
				return
			}
			event, ok := protocol.DecodeOrSkip(payload)
			if !ok {
				continue
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

func handshakeError(resp *http.Response) error {
	statusErr := &agents.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	if resp.Body != nil {
		if body, err := io.ReadAll(resp.Body); err == nil {
			statusErr.Body = string(bytes.TrimSpace(body))
		}
	}
	return statusErr
}
