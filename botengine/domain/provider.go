package domain

import "context"

// ChatRequest es una petición agnóstica de chat
type ChatRequest struct {
	SystemPrompt string
	History      []ChatTurn
	Tools        []Tool
	UserText     string
	Model        string
	ChatKey      string // negocio|wa_id, solo para logs
}

// ChatResponse es la respuesta agnóstica de un proveedor de IA
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
	// RawContent permite al orquestador re-inyectar el contenido exacto en la siguiente iteración.
	RawContent interface{}
	Usage      *UsageStats
}

// AIProvider es la interfaz delgada que deben implementar los modelos
type AIProvider interface {
	// Chat envía el contexto y herramientas a la IA y devuelve texto o llamadas a herramientas
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
