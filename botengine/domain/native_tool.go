package domain

import (
	"context"
	"time"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
)

// Tool describe una función que el modelo puede invocar. InputSchema es JSON Schema.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolContext es lo que el servidor inyecta a cada herramienta; el modelo no lo controla.
type ToolContext struct {
	Tenant  domainTenant.Context
	EndUser string
	Now     time.Time
}

// NativeTool extiende Tool con una función de ejecución local
type NativeTool struct {
	Tool
	Handler func(ctx context.Context, tc ToolContext, args map[string]any) (map[string]any, error)
}
