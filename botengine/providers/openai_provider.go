package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	domain "github.com/AzielCF/az-citas/botengine/domain"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider is the adapter for the OpenAI Chat Completions API
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider bound to one API key.
// Extra request options (base URL, HTTP client) are mostly useful in tests.
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Chat implements the AIProvider interface for OpenAI
func (p *OpenAIProvider) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildOpenAIMessages(req),
	}
	if tools := buildOpenAITools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	if len(completion.Choices) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("no response from openai")
	}

	choice := completion.Choices[0]
	resp := domain.ChatResponse{
		Text:       choice.Message.Content,
		RawContent: choice.Message.ToParam(),
		Usage: &domain.UsageStats{
			Model:        model,
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			logrus.WithError(err).WithField("tool", tc.Function.Name).Warn("[OPENAI] Tool arguments are not valid JSON")
		}
		resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	logrus.WithFields(logrus.Fields{
		"chat_key":       req.ChatKey,
		"model":          model,
		"input_tokens":   resp.Usage.InputTokens,
		"output_tokens":  resp.Usage.OutputTokens,
		"has_tool_calls": len(resp.ToolCalls) > 0,
	}).Debug("[OPENAI] Chat completed")

	return resp, nil
}

func buildOpenAIMessages(req domain.ChatRequest) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}

	for _, t := range req.History {
		if t.RawContent != nil {
			if msg, ok := t.RawContent.(openai.ChatCompletionMessageParamUnion); ok {
				messages = append(messages, msg)
				continue
			}
		}

		if len(t.ToolCalls) > 0 {
			var toolCalls []openai.ChatCompletionMessageToolCallUnionParam
			for _, tc := range t.ToolCalls {
				argsData, _ := json.Marshal(tc.Args)
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(argsData),
						},
						Type: "function",
					},
				})
			}
			msg := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if t.Text != "" {
				msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(t.Text),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &msg})
			continue
		}

		// Cada respuesta de herramienta es un mensaje "tool" con su id de llamada
		if len(t.ToolResponses) > 0 {
			for _, tr := range t.ToolResponses {
				data, _ := json.Marshal(tr.Data)
				messages = append(messages, openai.ToolMessage(string(data), tr.ID))
			}
			continue
		}

		if t.Role == domain.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(t.Text))
		} else {
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}

	if req.UserText != "" {
		messages = append(messages, openai.UserMessage(req.UserText))
	}
	return messages
}

func buildOpenAITools(tools []domain.Tool) []openai.ChatCompletionToolUnionParam {
	var out []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  openai.FunctionParameters(t.InputSchema),
				},
			},
		})
	}
	return out
}
