package domain

// Roles de turno que entienden los proveedores
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall representa una intención de la IA de llamar a una herramienta
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResponse representa el resultado de la ejecución de una herramienta
type ToolResponse struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// ChatTurn es un turno de la conversación tal como se envía al modelo.
type ChatTurn struct {
	Role          string         `json:"role"`
	Text          string         `json:"text,omitempty"`
	ToolCalls     []ToolCall     `json:"tool_calls,omitempty"`
	ToolResponses []ToolResponse `json:"tool_responses,omitempty"`
	// RawContent guarda el mensaje nativo del proveedor (ej: *genai.Content)
	// para re-inyectarlo tal cual en la siguiente vuelta del bucle de herramientas.
	RawContent interface{} `json:"-"`
}

// UsageStats contiene estadísticas de tokens de una respuesta
type UsageStats struct {
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Add acumula el uso de varias vueltas.
func (u *UsageStats) Add(other *UsageStats) {
	if other == nil {
		return
	}
	if u.Model == "" {
		u.Model = other.Model
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
