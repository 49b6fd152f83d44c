package aguiws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/agui-core/core/agents"
	"github.com/koscakluka/agui-core/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handle func(conn *websocket.Conn, request agents.TurnRequest)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var request agents.TurnRequest
		if err := conn.ReadJSON(&request); err != nil {
			return
		}
		handle(conn, request)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func writeFrames(conn *websocket.Conn, frames ...string) {
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
	}
}

func kinds(received []events.Event) []events.Kind {
	var result []events.Kind
	for _, event := range received {
		result = append(result, event.Kind())
	}
	return result
}

func TestRunStreamsEventsUntilNormalClose(t *testing.T) {
	requests := make(chan agents.TurnRequest, 1)
	server := newServer(t, func(conn *websocket.Conn, request agents.TurnRequest) {
		requests <- request
		writeFrames(conn,
			`{"type":"RUN_STARTED","threadId":"thread","runId":"run"}`,
			`{"type":"ACTION_EXECUTION_START","actionExecutionId":"t1","actionName":"search"}`,
			`not json`,
			`{"type":"ACTION_EXECUTION_END","actionExecutionId":"t1"}`,
			`{"type":"RUN_FINISHED","threadId":"thread","runId":"run"}`,
		)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	})

	var received []events.Event
	for event, err := range NewClient(wsURL(server)).Run(context.Background(), agents.TurnRequest{ThreadID: "thread", RunID: "run"}) {
		require.NoError(t, err)
		received = append(received, event)
	}

	assert.Equal(t, []events.Kind{
		events.KindRunStarted,
		events.KindToolCallStart,
		events.KindToolCallEnd,
		events.KindRunFinished,
	}, kinds(received))

	select {
	case request := <-requests:
		assert.Equal(t, "run", request.RunID)
	case <-time.After(time.Second):
		t.Fatal("server did not receive the turn request")
	}
}

func TestRunStopsAtEndMessage(t *testing.T) {
	server := newServer(t, func(conn *websocket.Conn, _ agents.TurnRequest) {
		writeFrames(conn, `{"type":"RUN_STARTED"}`, `[DONE]`, `{"type":"RUN_FINISHED"}`)
		_, _, _ = conn.ReadMessage()
	})

	var received []events.Event
	for event, err := range NewClient(wsURL(server)).Run(context.Background(), agents.TurnRequest{}) {
		require.NoError(t, err)
		received = append(received, event)
	}

	assert.Equal(t, []events.Kind{events.KindRunStarted}, kinds(received))
}

func TestRunYieldsErrorOnAbnormalClose(t *testing.T) {
	server := newServer(t, func(conn *websocket.Conn, _ agents.TurnRequest) {
		writeFrames(conn, `{"type":"RUN_STARTED"}`)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"))
	})

	var (
		received []events.Event
		runErr   error
	)
	for event, err := range NewClient(wsURL(server)).Run(context.Background(), agents.TurnRequest{}) {
		if err != nil {
			runErr = err
			continue
		}
		received = append(received, event)
	}

	assert.Equal(t, []events.Kind{events.KindRunStarted}, kinds(received))
	var closeErr *websocket.CloseError
	require.ErrorAs(t, runErr, &closeErr)
	assert.Equal(t, websocket.CloseInternalServerErr, closeErr.Code)
}

func TestRunReportsRejectedHandshake(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	var runErr error
	for _, err := range NewClient(wsURL(server)).Run(context.Background(), agents.TurnRequest{}) {
		runErr = err
	}

	var statusErr *agents.StatusError
	require.ErrorAs(t, runErr, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestRunClosesConnectionOnCancel(t *testing.T) {
	server := newServer(t, func(conn *websocket.Conn, _ agents.TurnRequest) {
		writeFrames(conn, `{"type":"RUN_STARTED"}`)
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var runErr error
		for _, err := range NewClient(wsURL(server)).Run(ctx, agents.TurnRequest{}) {
			if err != nil {
				runErr = err
				continue
			}
			cancel()
		}
		done <- runErr
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end after cancellation")
	}
}
