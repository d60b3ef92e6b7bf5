package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	domain "github.com/AzielCF/az-citas/botengine/domain"
)

func TestGeminiProvider_RequiresAPIKey(t *testing.T) {
	p := NewGeminiProvider("", "")
	_, err := p.Chat(context.Background(), domain.ChatRequest{UserText: "hola"})
	assert.Error(t, err)
}

func TestBuildGeminiContents_GroupsToolResponses(t *testing.T) {
	req := domain.ChatRequest{
		History: []domain.ChatTurn{
			{Role: domain.RoleUser, Text: "Hola"},
			{Role: domain.RoleAssistant, Text: "¡Hola! ¿En qué te ayudo?"},
			{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
				{ID: "1", Name: "get_available_slots", Args: map[string]any{"date": "2026-03-02"}},
				{ID: "2", Name: "cancel_appointment", Args: map[string]any{}},
			}},
			{Role: domain.RoleUser, ToolResponses: []domain.ToolResponse{
				{ID: "1", Name: "get_available_slots", Data: map[string]any{"result": "ok"}},
				{ID: "2", Name: "cancel_appointment", Data: map[string]any{"error": "x"}},
			}},
		},
		UserText: "gracias",
	}

	contents := buildGeminiContents(req)
	require.Len(t, contents, 5)
	assert.Equal(t, "model", contents[1].Role)
	assert.Len(t, contents[2].Parts, 2)
	require.Len(t, contents[3].Parts, 2)
	assert.Equal(t, "cancel_appointment", contents[3].Parts[1].FunctionResponse.Name)
	assert.Equal(t, "gracias", contents[4].Parts[0].Text)
}

func TestConvertSchema_DefaultsToObject(t *testing.T) {
	s := convertSchema(map[string]any{
		"properties": map[string]any{"date": map[string]any{"type": "string"}},
	})
	nested := convertSchema(map[string]any{
		"type":  "object",
		"items": map[string]any{"type": "string"},
	})
	assert.Equal(t, genai.TypeObject, nested.Type)
	assert.Equal(t, genai.TypeObject, s.Type)
	require.Contains(t, s.Properties, "date")
	assert.Equal(t, genai.TypeString, s.Properties["date"].Type)
}
