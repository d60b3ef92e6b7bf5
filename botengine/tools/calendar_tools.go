package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-citas/botengine/domain"
	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
	"github.com/AzielCF/az-citas/pkg/timeutils"
)

const (
	ToolAvailableSlots = "get_available_slots"
	ToolSchedule       = "schedule_appointment"
	ToolReschedule     = "reschedule_appointment"
	ToolCancel         = "cancel_appointment"
)

// CalendarTools expone el Calendar Gateway al modelo. El whatsapp_id del
// usuario nunca viene en los argumentos: se toma del ToolContext.
type CalendarTools struct {
	gateway domainCalendar.IGateway
}

func NewCalendarTools(gateway domainCalendar.IGateway) *CalendarTools {
	return &CalendarTools{gateway: gateway}
}

// All devuelve las cuatro herramientas en el orden en que se anuncian al modelo.
func (t *CalendarTools) All() []*domain.NativeTool {
	return []*domain.NativeTool{
		t.AvailableSlotsTool(),
		t.ScheduleTool(),
		t.RescheduleTool(),
		t.CancelTool(),
	}
}

func (t *CalendarTools) AvailableSlotsTool() *domain.NativeTool {
	return &domain.NativeTool{
		Tool: domain.Tool{
			Name:        ToolAvailableSlots,
			Description: "Lista los horarios disponibles de una fecha. Úsala antes de proponer o agendar una cita.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date": map[string]any{
						"type":        "string",
						"description": "Fecha en formato YYYY-MM-DD. Si se omite se usa mañana.",
					},
					"time_range": map[string]any{
						"type":        "string",
						"description": "Franja horaria: morning (8-11), afternoon (12-16), evening (17 en adelante) o all.",
						"enum":        []string{"morning", "afternoon", "evening", "all"},
					},
				},
			},
		},
		Handler: func(ctx context.Context, tc domain.ToolContext, args map[string]any) (map[string]any, error) {
			loc := tc.Tenant.Location()
			now := toolNow(tc).In(loc)

			var date time.Time
			if raw := stringArg(args, "date"); raw != "" {
				parsed, err := timeutils.ParseLocalDate(raw, loc)
				if err != nil {
					return failure(fmt.Sprintf("❌ Formato de fecha inválido. Usa YYYY-MM-DD. Error: %v", err)), nil
				}
				date = parsed
			} else {
				date = timeutils.StartOfDay(now).AddDate(0, 0, 1)
			}

			bucketArg := stringArg(args, "time_range")
			if bucketArg == "" {
				bucketArg = string(domainCalendar.BucketMorning)
			}

			res, err := t.gateway.FindOpenSlots(ctx, tc.Tenant, date, domainCalendar.ParseBucket(bucketArg))
			if err != nil {
				return nil, err
			}

			labels := make([]string, 0, len(res.Slots))
			for _, s := range res.Slots {
				labels = append(labels, s.Label)
			}
			return map[string]any{
				"success": len(res.Slots) > 0,
				"result":  res.Message,
				"date":    res.Date,
				"slots":   labels,
			}, nil
		},
	}
}

func (t *CalendarTools) ScheduleTool() *domain.NativeTool {
	return &domain.NativeTool{
		Tool: domain.Tool{
			Name:        ToolSchedule,
			Description: "Agenda una nueva cita para el usuario actual y guarda su nombre y edad si los dio.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "Título de la cita, por ejemplo \"Corte y barba\".",
					},
					"start_time": map[string]any{
						"type":        "string",
						"description": "Inicio en hora local del negocio, formato YYYY-MM-DDTHH:MM:SS.",
					},
					"end_time": map[string]any{
						"type":        "string",
						"description": "Fin en hora local del negocio, formato YYYY-MM-DDTHH:MM:SS.",
					},
					"customer_name": map[string]any{
						"type":        "string",
						"description": "Nombre completo del cliente.",
					},
					"customer_age": map[string]any{
						"type":        "string",
						"description": "Edad del cliente, solo dígitos.",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Notas adicionales de la cita.",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "Lugar de la cita. Si se omite se usa la dirección del negocio.",
					},
				},
				"required": []string{"summary", "start_time", "end_time"},
			},
		},
		Handler: func(ctx context.Context, tc domain.ToolContext, args map[string]any) (map[string]any, error) {
			loc := tc.Tenant.Location()
			start, err := timeutils.ParseLocalDateTime(stringArg(args, "start_time"), loc)
			if err != nil {
				return failure(invalidDateTime(err)), nil
			}
			end, err := timeutils.ParseLocalDateTime(stringArg(args, "end_time"), loc)
			if err != nil {
				return failure(invalidDateTime(err)), nil
			}

			out, err := t.gateway.Book(ctx, tc.Tenant, domainCalendar.BookRequest{
				EndUser:      tc.EndUser,
				Summary:      stringArg(args, "summary"),
				Start:        start,
				End:          end,
				CustomerName: stringArg(args, "customer_name"),
				CustomerAge:  stringArg(args, "customer_age"),
				Description:  stringArg(args, "description"),
				Location:     stringArg(args, "location"),
			})
			if err != nil {
				return nil, err
			}
			return outcome(out), nil
		},
	}
}

func (t *CalendarTools) RescheduleTool() *domain.NativeTool {
	return &domain.NativeTool{
		Tool: domain.Tool{
			Name:        ToolReschedule,
			Description: "Mueve una cita existente del usuario actual a un nuevo horario.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"new_start_time": map[string]any{
						"type":        "string",
						"description": "Nuevo inicio, formato YYYY-MM-DDTHH:MM:SS.",
					},
					"new_end_time": map[string]any{
						"type":        "string",
						"description": "Nuevo fin, formato YYYY-MM-DDTHH:MM:SS.",
					},
					"appointment_selector": map[string]any{
						"type":        "string",
						"description": "\"latest\" para la cita más reciente o parte del título de la cita.",
					},
				},
				"required": []string{"new_start_time", "new_end_time"},
			},
		},
		Handler: func(ctx context.Context, tc domain.ToolContext, args map[string]any) (map[string]any, error) {
			loc := tc.Tenant.Location()
			start, err := timeutils.ParseLocalDateTime(stringArg(args, "new_start_time"), loc)
			if err != nil {
				return failure(invalidDateTime(err)), nil
			}
			end, err := timeutils.ParseLocalDateTime(stringArg(args, "new_end_time"), loc)
			if err != nil {
				return failure(invalidDateTime(err)), nil
			}

			out, err := t.gateway.Move(ctx, tc.Tenant, tc.EndUser, start, end, selectorArg(args))
			if err != nil {
				return nil, err
			}
			return outcome(out), nil
		},
	}
}

func (t *CalendarTools) CancelTool() *domain.NativeTool {
	return &domain.NativeTool{
		Tool: domain.Tool{
			Name:        ToolCancel,
			Description: "Cancela una cita del usuario actual.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"appointment_selector": map[string]any{
						"type":        "string",
						"description": "\"latest\" para la cita más reciente o parte del título de la cita.",
					},
				},
			},
		},
		Handler: func(ctx context.Context, tc domain.ToolContext, args map[string]any) (map[string]any, error) {
			out, err := t.gateway.Remove(ctx, tc.Tenant, tc.EndUser, selectorArg(args))
			if err != nil {
				return nil, err
			}
			return outcome(out), nil
		},
	}
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// algunos modelos mandan la edad como número
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		logrus.WithFields(logrus.Fields{"arg": key, "type": fmt.Sprintf("%T", v)}).Debug("[AGENT] Unexpected tool argument type")
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func selectorArg(args map[string]any) string {
	sel := stringArg(args, "appointment_selector")
	if sel == "" {
		return domainCalendar.SelectorLatest
	}
	return sel
}

func toolNow(tc domain.ToolContext) time.Time {
	if tc.Now.IsZero() {
		return time.Now()
	}
	return tc.Now
}

func invalidDateTime(err error) string {
	return fmt.Sprintf("❌ Formato de fecha/hora inválido. Error: %v", err)
}

func outcome(out domainCalendar.Outcome) map[string]any {
	return map[string]any{
		"success": out.OK,
		"result":  out.Message,
	}
}

func failure(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"result":  msg,
	}
}
