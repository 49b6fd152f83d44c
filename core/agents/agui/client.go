// Package agui runs turns against an agent service that accepts a turn request
// over HTTP and answers with a server-sent event stream.
package agui

import (
	"net/http"

	"github.com/koscakluka/agui-core/core/agents"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ agents.Agent = (*Client)(nil)

type Client struct {
	endpoint   string
	httpClient *http.Client
	header     http.Header
}

type ClientOption func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithHeader adds a header sent with every turn request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.header.Add(key, value) }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	client := &Client{
		endpoint: endpoint,
		header:   http.Header{},
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Endpoint() string {
	return c.endpoint
}
