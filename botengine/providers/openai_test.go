package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/AzielCF/az-citas/botengine/domain"
)

func TestOpenAIProvider_ParsesToolCalls(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
				"role": "assistant", "content": null,
				"tool_calls": [{"id": "call_1", "type": "function",
					"function": {"name": "get_available_slots", "arguments": "{\"date\":\"2026-03-02\",\"time_range\":\"morning\"}"}}]
			}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 15, "total_tokens": 135}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		SystemPrompt: "Eres un asistente",
		History:      []domain.ChatTurn{{Role: domain.RoleUser, Text: "Hola"}, {Role: domain.RoleAssistant, Text: "¡Hola!"}},
		UserText:     "¿Qué horarios hay mañana?",
		Tools: []domain.Tool{{
			Name:        "get_available_slots",
			Description: "slots",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "morning", resp.ToolCalls[0].Args["time_range"])
	assert.Equal(t, 120, resp.Usage.InputTokens)

	messages := body["messages"].([]any)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, DefaultOpenAIModel, body["model"])
	assert.Len(t, body["tools"], 1)
}

func TestBuildOpenAIMessages_ToolRoundTrip(t *testing.T) {
	msgs := buildOpenAIMessages(domain.ChatRequest{
		History: []domain.ChatTurn{
			{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "a", Name: "cancel_appointment", Args: map[string]any{}}}},
			{Role: domain.RoleUser, ToolResponses: []domain.ToolResponse{{ID: "a", Name: "cancel_appointment", Data: map[string]any{"result": "ok"}}}},
		},
	})
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[0].OfAssistant)
	require.NotNil(t, msgs[1].OfTool)
	assert.Equal(t, "a", msgs[1].OfTool.ToolCallID)
}
