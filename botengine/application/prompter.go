package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	domain "github.com/AzielCF/az-citas/botengine/domain"
	domainConversation "github.com/AzielCF/az-citas/domains/conversation"
	domainCustomer "github.com/AzielCF/az-citas/domains/customer"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	"github.com/AzielCF/az-citas/pkg/timeutils"
)

const (
	sectionSeparator = "\n\n---\n\n"
	minPromptLength  = 100
)

const defaultInstructions = `Eres un asistente virtual amigable para el negocio.

Tu función es ayudar a los clientes con:
- Información sobre servicios y precios
- Agendar citas
- Responder preguntas frecuentes

Usa un tono profesional y amigable.

REGLAS IMPORTANTES:
- Verifica disponibilidad antes de confirmar citas
- Siempre confirma con fecha, hora exacta, servicio y nombre del cliente
- Recolecta información del cliente de forma natural: nombre, edad, servicio deseado
- Formato de confirmación: "✅ Tu cita está agendada para el [fecha] a las [hora] para [servicio], [nombre]"
`

var businessIcons = map[string]string{
	"barberia":   "💈",
	"salon":      "💇",
	"restaurant": "🍽️",
	"cafe":       "☕",
	"spa":        "💆",
	"gym":        "🏋️",
	"clinic":     "🏥",
}

var staffTitles = map[string]string{
	"barberia":   "Barberos",
	"salon":      "Estilistas",
	"restaurant": "Nuestro Equipo",
	"cafe":       "Baristas",
	"spa":        "Terapeutas",
	"gym":        "Entrenadores",
	"clinic":     "Profesionales",
}

// Prompter ensambla las instrucciones del sistema a partir de la configuración del negocio.
// El texto del administrador se concatena tal cual: nunca se usa como plantilla.
type Prompter struct{}

func NewPrompter() *Prompter {
	return &Prompter{}
}

// Assemble arma la petición base: instrucciones + historial reciente como turnos.
func (p *Prompter) Assemble(tc domainTenant.Context, recent []domainConversation.Turn, cust domainCustomer.Customer, now time.Time) domain.ChatRequest {
	history := make([]domain.ChatTurn, 0, len(recent))
	for _, t := range recent {
		role := domain.RoleUser
		if t.Role == domainConversation.RoleAssistant {
			role = domain.RoleAssistant
		}
		history = append(history, domain.ChatTurn{Role: role, Text: t.Text})
	}
	return domain.ChatRequest{
		SystemPrompt: p.Build(tc, cust, now),
		History:      history,
		ChatKey:      tc.BusinessID() + "|" + cust.WhatsAppID,
	}
}

// Build es función pura de sus argumentos.
func (p *Prompter) Build(tc domainTenant.Context, cust domainCustomer.Customer, now time.Time) string {
	name := strings.TrimSpace(cust.Name)
	if name == "" {
		name = domainCustomer.DefaultName
	}
	local := now.In(tc.Location())

	instructions := strings.TrimSpace(tc.Business.Settings.AIPrompt)
	if instructions == "" {
		instructions = strings.TrimSpace(defaultInstructions)
	}

	prompt := instructions +
		sectionSeparator +
		contextSection(tc, name, cust.WhatsAppID, local) +
		sectionSeparator +
		businessInfoSection(tc.Business)

	if len([]rune(prompt)) < minPromptLength {
		return fallbackPrompt(name, cust.WhatsAppID, local)
	}
	return prompt
}

func contextSection(tc domainTenant.Context, name, waID string, now time.Time) string {
	s := tc.Business.Settings
	country := orDefault(s.Country, domainTenant.DefaultCountry)
	timezone := orDefault(s.Timezone, domainTenant.DefaultTimezone)

	var b strings.Builder
	b.WriteString("### CONTEXTO ACTUAL\n\n")

	b.WriteString("**Negocio:**\n")
	fmt.Fprintf(&b, "- Nombre: %s\n", orDefault(tc.Business.Name, "Business"))
	fmt.Fprintf(&b, "- Ubicación: %s, %s, %s\n", s.City, s.State, country)
	if s.Phone != "" {
		fmt.Fprintf(&b, "- Teléfono: %s\n", s.Phone)
	}
	fmt.Fprintf(&b, "- Zona horaria: %s\n", timezone)
	fmt.Fprintf(&b, "- Máximo de citas simultáneas: %d\n", s.MaxConcurrent())

	b.WriteString("\n**Cliente actual:**\n")
	fmt.Fprintf(&b, "- Nombre: %s\n", name)
	fmt.Fprintf(&b, "- WhatsApp ID: %s\n", waID)

	b.WriteString("\n**Fecha y hora:**\n")
	fmt.Fprintf(&b, "- Fecha actual: %s (DD/MM/YYYY)\n", now.Format("02/01/2006"))
	fmt.Fprintf(&b, "- Hora actual: %s\n", now.Format("15:04"))
	fmt.Fprintf(&b, "- Día de la semana: %s\n", timeutils.SpanishWeekday(now.Weekday()))
	fmt.Fprintf(&b, "- Año: %d\n", now.Year())

	return b.String()
}

func businessInfoSection(b domainTenant.Business) string {
	sections := []string{
		servicesText(b),
		hoursText(b.Settings),
		staffText(b),
		locationText(b.Settings),
		paymentText(b.Settings),
		promotionsText(b.Settings),
	}
	out := sections[:0]
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

func servicesText(b domainTenant.Business) string {
	if len(b.Settings.Services) == 0 {
		return "Servicios disponibles (consultar precios)"
	}
	icon, ok := businessIcons[b.BusinessType]
	if !ok {
		icon = "🏪"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **SERVICIOS Y PRECIOS**\n\n", icon)
	for _, svc := range b.Settings.Services {
		name := orDefault(svc.Name, "Servicio")
		if svc.Duration > 0 {
			fmt.Fprintf(&sb, "• %s: $%s COP (%d min)\n", name, humanize.Comma(svc.Price), svc.Duration)
		} else {
			fmt.Fprintf(&sb, "• %s: $%s COP\n", name, humanize.Comma(svc.Price))
		}
	}
	return sb.String()
}

func hoursText(s domainTenant.Settings) string {
	if len(s.BusinessHours) == 0 {
		return "Horarios de atención (consultar)"
	}

	var sb strings.Builder
	sb.WriteString("🕐 **HORARIOS DE ATENCIÓN**\n\n")
	for _, d := range domainTenant.Weekdays {
		day := timeutils.Capitalize(timeutils.SpanishWeekday(d))
		hours, ok := s.BusinessHours[domainTenant.WeekdayKey(d)]
		switch {
		case !ok:
			continue
		case hours.Closed():
			fmt.Fprintf(&sb, "• %s: Cerrado\n", day)
		case hours.Open != "" && hours.Close != "":
			fmt.Fprintf(&sb, "• %s: %s - %s\n", day, hours.Open, hours.Close)
		}
	}
	return sb.String()
}

func staffText(b domainTenant.Business) string {
	if len(b.Settings.Staff) == 0 {
		return ""
	}
	title, ok := staffTitles[b.BusinessType]
	if !ok {
		title = "Nuestro Equipo"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 **%s**\n\n", strings.ToUpper(title))
	for _, m := range b.Settings.Staff {
		if len(m.Specialties) > 0 {
			fmt.Fprintf(&sb, "• %s: %s\n", m.Name, strings.Join(m.Specialties, ", "))
		} else {
			fmt.Fprintf(&sb, "• %s\n", m.Name)
		}
	}
	return sb.String()
}

func locationText(s domainTenant.Settings) string {
	if s.Address == "" {
		return "📍 Ubicación disponible por solicitud"
	}
	return fmt.Sprintf("📍 **UBICACIÓN**\n\n%s, %s, %s", s.Address, s.City, s.State)
}

func paymentText(s domainTenant.Settings) string {
	if len(s.PaymentMethods) == 0 {
		return "💳 Aceptamos varios métodos de pago"
	}
	var sb strings.Builder
	sb.WriteString("💳 **MEDIOS DE PAGO**\n\n")
	for _, m := range s.PaymentMethods {
		fmt.Fprintf(&sb, "• %s\n", m)
	}
	return sb.String()
}

func promotionsText(s domainTenant.Settings) string {
	if len(s.Promotions) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("🎉 **PROMOCIONES ACTUALES**\n\n")
	for _, promo := range s.Promotions {
		fmt.Fprintf(&sb, "• %s\n", promo)
	}
	return sb.String()
}

func fallbackPrompt(name, waID string, now time.Time) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant for appointment scheduling.\n\n")
	b.WriteString("Current customer: " + name + " (WhatsApp ID: " + waID + ")\n")
	b.WriteString("Current date: " + now.Format("02/01/2006") + "\n")
	fmt.Fprintf(&b, "Current year: %d\n\n", now.Year())
	b.WriteString("You can help with scheduling appointments using the calendar tools available.\n")
	b.WriteString("Always be polite and professional.\n")
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
