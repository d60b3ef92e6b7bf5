package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/AzielCF/az-citas/botengine/domain"
)

const (
	DefaultMaxIterations = 5

	// FallbackLoopCap se devuelve cuando el modelo sigue pidiendo herramientas al llegar al tope.
	FallbackLoopCap = "Estoy procesando tu solicitud, por favor espera un momento."
	// FallbackApology se devuelve cuando el modelo falla o responde vacío.
	FallbackApology = "Lo siento, tuve un problema procesando tu mensaje. ¿Podrías intentar de nuevo?"
)

// Toolbox resuelve y ejecuta las herramientas que el modelo puede invocar.
type Toolbox interface {
	Definitions() []domain.Tool
	Call(ctx context.Context, tc domain.ToolContext, name string, args map[string]any) (map[string]any, error)
}

type OrchestratorOptions struct {
	MaxIterations int
	ModelTimeout  time.Duration
	ToolTimeout   time.Duration
}

// Outcome de una ejecución del bucle
type Result struct {
	Text       string
	Iterations int
	ToolCalls  int
	CapReached bool
	Usage      domain.UsageStats
}

// Orchestrator maneja el ciclo modelo ⇄ herramientas de un turno.
// No guarda estado entre ejecuciones: cada Run trabaja sobre su propia copia del historial.
type Orchestrator struct {
	provider domain.AIProvider
	tools    Toolbox
	opts     OrchestratorOptions
}

func NewOrchestrator(provider domain.AIProvider, tools Toolbox, opts OrchestratorOptions) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Orchestrator{provider: provider, tools: tools, opts: opts}
}

// Run ejecuta el bucle hasta obtener texto o llegar al tope de iteraciones.
// Si el modelo falla, Result.Text trae la disculpa y se devuelve el error para registrarlo.
func (o *Orchestrator) Run(ctx context.Context, req domain.ChatRequest, tc domain.ToolContext) (Result, error) {
	history := make([]domain.ChatTurn, len(req.History), len(req.History)+1+2*o.opts.MaxIterations)
	copy(history, req.History)
	if req.UserText != "" {
		history = append(history, domain.ChatTurn{Role: domain.RoleUser, Text: req.UserText})
	}
	req.History = history
	req.UserText = ""
	if o.tools != nil {
		req.Tools = o.tools.Definitions()
	}

	log := logrus.WithFields(logrus.Fields{"chat_key": req.ChatKey})
	var result Result

	for i := 0; i < o.opts.MaxIterations; i++ {
		result.Iterations = i + 1

		res, err := o.chat(ctx, req)
		if err != nil {
			log.WithError(err).WithField("iteration", i+1).Error("[AGENT] Model call failed")
			result.Text = FallbackApology
			return result, fmt.Errorf("model call failed: %w", err)
		}
		result.Usage.Add(res.Usage)

		// Sin llamadas a herramientas: la respuesta de texto es la final
		if len(res.ToolCalls) == 0 {
			result.Text = res.Text
			if result.Text == "" {
				log.Warn("[AGENT] Model returned an empty answer")
				result.Text = FallbackApology
			}
			return result, nil
		}

		req.History = append(req.History, domain.ChatTurn{
			Role:       domain.RoleAssistant,
			Text:       res.Text,
			ToolCalls:  res.ToolCalls,
			RawContent: res.RawContent,
		})

		// Todas las respuestas de herramientas van juntas en un solo turno
		responses := make([]domain.ToolResponse, 0, len(res.ToolCalls))
		for _, call := range res.ToolCalls {
			result.ToolCalls++
			responses = append(responses, domain.ToolResponse{
				ID:   call.ID,
				Name: call.Name,
				Data: o.callTool(ctx, tc, call),
			})
		}
		req.History = append(req.History, domain.ChatTurn{
			Role:          domain.RoleUser,
			ToolResponses: responses,
		})
	}

	log.WithField("iterations", result.Iterations).Warn("[AGENT] Tool loop cap reached")
	result.Text = FallbackLoopCap
	result.CapReached = true
	return result, nil
}

func (o *Orchestrator) chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if o.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ModelTimeout)
		defer cancel()
	}
	return o.provider.Chat(ctx, req)
}

// callTool nunca falla: los errores y los panics vuelven al modelo como {"error": "..."}.
func (o *Orchestrator) callTool(ctx context.Context, tc domain.ToolContext, call domain.ToolCall) (out map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"tool":     call.Name,
				"end_user": tc.EndUser,
			}).Errorf("[AGENT] Tool panicked: %v", r)
			out = map[string]any{"error": fmt.Sprintf("tool %s failed: %v", call.Name, r)}
		}
	}()
	if o.tools == nil {
		return map[string]any{"error": "no tools available"}
	}
	if o.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ToolTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := o.tools.Call(ctx, tc, call.Name, call.Args)
	entry := logrus.WithFields(logrus.Fields{
		"tool":        call.Name,
		"end_user":    tc.EndUser,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("[AGENT] Tool failed")
		return map[string]any{"error": err.Error()}
	}
	entry.Info("[AGENT] Tool executed")
	if out == nil {
		out = map[string]any{}
	}
	return out
}
