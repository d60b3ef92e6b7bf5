package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	domain "github.com/AzielCF/az-citas/botengine/domain"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider is the adapter for the Gemini API.
type GeminiProvider struct {
	apiKey string
	model  string
	// newClient se puede reemplazar en tests
	newClient func(ctx context.Context, apiKey string) (*genai.Client, error)
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		newClient: func(ctx context.Context, apiKey string) (*genai.Client, error) {
			return genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
		},
	}
}

// Chat implements the AIProvider interface for Gemini
func (p *GeminiProvider) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if p.apiKey == "" {
		return domain.ChatResponse{}, fmt.Errorf("gemini provider has no API key")
	}

	client, err := p.newClient(ctx, p.apiKey)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, "")
	}
	if decls := buildGeminiDeclarations(req.Tools); len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	result, err := generateContentWithRetry(ctx, client, model, buildGeminiContents(req), cfg)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return domain.ChatResponse{}, fmt.Errorf("no response from gemini")
	}

	candidate := result.Candidates[0]

	// Extraer texto manualmente de las partes (más robusto que result.Text())
	var fullText strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			fullText.WriteString(part.Text)
		}
	}

	resp := domain.ChatResponse{
		Text:       fullText.String(),
		RawContent: candidate.Content,
	}
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	if usage := result.UsageMetadata; usage != nil {
		resp.Usage = &domain.UsageStats{
			Model:        model,
			InputTokens:  int(usage.PromptTokenCount),
			OutputTokens: int(usage.CandidatesTokenCount),
		}
	}

	logrus.WithFields(logrus.Fields{
		"chat_key":       req.ChatKey,
		"model":          model,
		"has_tool_calls": len(resp.ToolCalls) > 0,
	}).Debug("[GEMINI] Chat completed")

	return resp, nil
}

func buildGeminiDeclarations(tools []domain.Tool) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.InputSchema),
		})
	}
	return decls
}

func buildGeminiContents(req domain.ChatRequest) []*genai.Content {
	var contents []*genai.Content
	for _, t := range req.History {
		// Contenido nativo de una vuelta previa del bucle
		if t.RawContent != nil {
			if raw, ok := t.RawContent.(*genai.Content); ok {
				contents = append(contents, raw)
				continue
			}
		}

		if len(t.ToolCalls) > 0 {
			parts := []*genai.Part{}
			if t.Text != "" {
				parts = append(parts, &genai.Part{Text: t.Text})
			}
			for _, tc := range t.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Args},
				})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			continue
		}

		// Todas las respuestas de un mismo turno deben ir en el mismo Content
		if len(t.ToolResponses) > 0 {
			parts := []*genai.Part{}
			for _, tr := range t.ToolResponses {
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{ID: tr.ID, Name: tr.Name, Response: tr.Data},
				})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
			continue
		}

		if t.Text == "" {
			continue
		}
		role := genai.RoleUser
		if t.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}

	if req.UserText != "" {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: req.UserText}},
		})
	}
	return contents
}

// convertSchema pasa un JSON Schema al tipo de genai. Los tipos van en mayúsculas ("OBJECT").
func convertSchema(input map[string]any) *genai.Schema {
	data, _ := json.Marshal(upperTypes(input))
	var schema genai.Schema
	_ = json.Unmarshal(data, &schema)
	if schema.Type == "" {
		schema.Type = genai.TypeObject
	}
	return &schema
}

func upperTypes(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		switch val := v.(type) {
		case string:
			if k == "type" {
				val = strings.ToUpper(val)
			}
			out[k] = val
		case map[string]any:
			out[k] = upperTypes(val)
		default:
			out[k] = v
		}
	}
	return out
}

func generateContentWithRetry(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for i := 0; i < 3; i++ {
		result, err := client.Models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return result, nil
		}
		if !strings.Contains(err.Error(), "503") {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<uint(i)) * time.Second):
		}
	}
	return nil, fmt.Errorf("max retries exceeded")
}
