package tools

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-citas/botengine/domain"
)

// Registry es el catálogo de herramientas nativas expuesto al orquestador.
type Registry struct {
	order []string
	tools map[string]*domain.NativeTool
}

func NewRegistry(tools ...*domain.NativeTool) *Registry {
	r := &Registry{tools: make(map[string]*domain.NativeTool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register añade o reemplaza una herramienta por nombre.
func (r *Registry) Register(t *domain.NativeTool) {
	if t == nil || t.Name == "" {
		return
	}
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

func (r *Registry) Definitions() []domain.Tool {
	defs := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Tool)
	}
	return defs
}

func (r *Registry) Call(ctx context.Context, tc domain.ToolContext, name string, args map[string]any) (map[string]any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.Handler(ctx, tc, args)
}
