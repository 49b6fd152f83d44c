package agents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRequestMarshalsEmptyPlaceholders(t *testing.T) {
	payload, err := json.Marshal(TurnRequest{ThreadID: "thread", RunID: "run"})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"threadId": "thread",
		"runId": "run",
		"messages": [],
		"state": {},
		"tools": [],
		"context": [],
		"forwardedProps": {}
	}`, string(payload))
}

func TestTurnRequestMarshalsHistory(t *testing.T) {
	request := TurnRequest{
		ThreadID: "thread",
		RunID:    "run",
		Messages: []Message{
			{ID: "u1", Role: MessageRoleUser, Content: "weather?"},
			{
				ID:      "a1",
				Role:    MessageRoleAssistant,
				Content: "Checking",
				ToolCalls: []ToolCall{{
					ID:       "t1",
					Type:     "function",
					Function: ToolCallFunction{Name: "weather", Arguments: `{"city":"Zagreb"}`},
				}},
			},
			{ID: "t1-result", Role: MessageRoleTool, Content: "sunny", ToolCallID: "t1"},
		},
		ForwardedProps: map[string]any{ForwardedPropAgentID: "assistant"},
	}

	payload, err := json.Marshal(request)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"threadId": "thread",
		"runId": "run",
		"messages": [
			{"id": "u1", "role": "user", "content": "weather?"},
			{"id": "a1", "role": "assistant", "content": "Checking", "toolCalls": [
				{"id": "t1", "type": "function", "function": {"name": "weather", "arguments": "{\"city\":\"Zagreb\"}"}}
			]},
			{"id": "t1-result", "role": "tool", "content": "sunny", "toolCallId": "t1"}
		],
		"state": {},
		"tools": [],
		"context": [],
		"forwardedProps": {"agent_id": "assistant"}
	}`, string(payload))
}

func TestNewToolReflectsParameters(t *testing.T) {
	type weatherParameters struct {
		City string `json:"city" jsonschema:"description=City to look up"`
		Days int    `json:"days,omitempty"`
	}

	tool := NewTool[weatherParameters]("weather", "Looks up the forecast")

	require.NotNil(t, tool.Parameters)
	assert.Equal(t, "weather", tool.Name)
	assert.Equal(t, "object", tool.Parameters.Type)
	assert.Equal(t, []string{"city"}, tool.Parameters.Required)

	city, ok := tool.Parameters.Properties.Get("city")
	require.True(t, ok)
	assert.Equal(t, "string", city.Type)
	assert.Equal(t, "City to look up", city.Description)
}

func TestStatusErrorMessage(t *testing.T) {
	assert.EqualError(t, &StatusError{StatusCode: 502, Status: "502 Bad Gateway"}, "agent responded with 502 Bad Gateway")
	assert.EqualError(t, &StatusError{StatusCode: 404, Status: "404 Not Found", Body: "no agent"}, "agent responded with 404 Not Found: no agent")
}

func TestRequestSchemaDescribesBody(t *testing.T) {
	schema := RequestSchema()

	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Required, "threadId")

	tools, ok := schema.Properties.Get("tools")
	require.True(t, ok)
	assert.Equal(t, "array", tools.Type)
	require.NotNil(t, tools.Items)

	parameters, ok := tools.Items.Properties.Get("parameters")
	require.True(t, ok)
	assert.Equal(t, "object", parameters.Type)
}
