package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
	domainCustomer "github.com/AzielCF/az-citas/domains/customer"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	"github.com/AzielCF/az-citas/pkg/timeutils"
	"github.com/AzielCF/az-citas/validations"
)

const locationTBD = "Location TBD"

type CalendarOptions struct {
	// CalendarID se usa cuando el negocio no define settings.calendar_id.
	CalendarID string
	ListLimit  int
	Timeout    time.Duration
}

// calendarService aplica las reglas de agenda (horario, capacidad, propiedad)
// sobre un proveedor de calendario. El chequeo de capacidad y la creación no
// son atómicos: dos reservas simultáneas pueden pasar ambas el chequeo.
type calendarService struct {
	provider  domainCalendar.IProvider
	customers domainCustomer.IRepository
	opts      CalendarOptions
	now       func() time.Time
}

func NewCalendarService(provider domainCalendar.IProvider, customers domainCustomer.IRepository, opts CalendarOptions) domainCalendar.IGateway {
	if opts.ListLimit <= 0 {
		opts.ListLimit = domainCalendar.DefaultListLimit
	}
	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}
	return &calendarService{provider: provider, customers: customers, opts: opts, now: time.Now}
}

func (s *calendarService) calendarID(tc domainTenant.Context) string {
	if id := strings.TrimSpace(tc.Business.Settings.CalendarID); id != "" {
		return id
	}
	return s.opts.CalendarID
}

func (s *calendarService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// upcoming lista los próximos eventos del calendario del negocio en una sola llamada.
func (s *calendarService) upcoming(ctx context.Context, tc domainTenant.Context, from time.Time) ([]domainCalendar.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	events, err := s.provider.ListEvents(ctx, s.calendarID(tc), from, s.opts.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	return events, nil
}

func (s *calendarService) FindOpenSlots(ctx context.Context, tc domainTenant.Context, date time.Time, bucket domainCalendar.Bucket) (domainCalendar.SlotsResult, error) {
	loc := tc.Location()
	day := timeutils.StartOfDay(date.In(loc))
	res := domainCalendar.SlotsResult{Date: day.Format(time.DateOnly), Bucket: bucket}
	label := bucket.Spanish()

	openMin, closeMin, closed := tc.Business.Settings.OpeningHours(day.Weekday())
	if closed {
		res.Closed = true
		res.Message = fmt.Sprintf("❌ Lo siento, estamos cerrados los %s. ¿Te gustaría agendar para otro día?",
			timeutils.SpanishWeekdayPlural(day.Weekday()))
		return res, nil
	}

	var candidates []domainCalendar.Slot
	// primera hora completa desde la apertura: con 08:30 el primer turno es 09:00
	for hour := (openMin + 59) / 60; hour < closeMin/60; hour++ {
		if !bucket.Contains(hour) {
			continue
		}
		start := day.Add(time.Duration(hour) * time.Hour)
		candidates = append(candidates, domainCalendar.Slot{Start: start, End: start.Add(time.Hour), Label: timeutils.SlotLabel(start)})
	}
	if len(candidates) == 0 {
		res.Message = fmt.Sprintf("❌ No hay horarios disponibles en la %s para %s. ¿Te gustaría probar otro horario?", label, res.Date)
		return res, nil
	}

	events, err := s.upcoming(ctx, tc, day)
	if err != nil {
		return res, err
	}

	limit := tc.Business.Settings.MaxConcurrent()
	for _, slot := range candidates {
		if len(overlapping(events, slot.Start, slot.End, "")) < limit {
			res.Slots = append(res.Slots, slot)
		}
	}

	if len(res.Slots) == 0 {
		res.Message = fmt.Sprintf("❌ Lo siento, no hay horarios disponibles para %s en la %s. ¿Te gustaría probar otro día o horario?", res.Date, label)
		return res, nil
	}

	labels := make([]string, len(res.Slots))
	for i, slot := range res.Slots {
		labels[i] = slot.Label
	}
	res.Message = fmt.Sprintf("📅 Horarios disponibles para %s (%s):\n\n🕐 %s\n\n¿Cuál te gustaría?", res.Date, label, strings.Join(labels, ", "))
	return res, nil
}

func (s *calendarService) Book(ctx context.Context, tc domainTenant.Context, req domainCalendar.BookRequest) (domainCalendar.Outcome, error) {
	log := logrus.WithFields(logrus.Fields{"business_id": tc.BusinessID(), "whatsapp_id": req.EndUser})

	if err := validations.ValidateBookRequest(ctx, req); err != nil {
		return reject(fmt.Sprintf("❌ Datos de la cita inválidos. Error: %v", err)), nil
	}

	loc := tc.Location()
	start, end := req.Start.In(loc), req.End.In(loc)

	if msg, ok := withinHours(tc.Business.Settings, start, "Por favor elige otro día."); !ok {
		return reject(msg), nil
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = tc.Business.Settings.Address
	}
	if location == "" {
		location = locationTBD
	}

	s.saveCustomer(ctx, req, log)

	events, err := s.upcoming(ctx, tc, timeutils.StartOfDay(start))
	if err != nil {
		return domainCalendar.Outcome{}, err
	}
	if msg, full := capacityExceeded(events, start, end, "", tc.Business.Settings.MaxConcurrent()); full {
		log.WithField("start", start).Info("[CALENDAR] Booking rejected, slot at capacity")
		return reject("❌ No se puede agendar la cita. " + msg), nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ev, err := s.provider.CreateEvent(cctx, s.calendarID(tc), domainCalendar.NewEvent{
		Summary:     req.Summary,
		Description: domainCalendar.WithCorrelation(req.Description, req.EndUser),
		Location:    location,
		Start:       start,
		End:         end,
		TimeZone:    loc.String(),
	})
	if err != nil {
		log.WithError(err).Error("[CALENDAR] Failed to create event")
		return reject("❌ No se pudo crear la cita. Por favor, intenta de nuevo."), nil
	}

	log.WithField("event_id", ev.ID).Info("[CALENDAR] Appointment booked")
	return domainCalendar.Outcome{
		OK: true,
		Message: fmt.Sprintf("✅ Tu cita '%s' ha sido agendada exitosamente para el %s a las %s, parce! 📅",
			req.Summary, start.Format(time.DateOnly), timeutils.ClockLabel(start)),
		Event: &ev,
	}, nil
}

func (s *calendarService) Move(ctx context.Context, tc domainTenant.Context, endUser string, newStart, newEnd time.Time, selector string) (domainCalendar.Outcome, error) {
	log := logrus.WithFields(logrus.Fields{"business_id": tc.BusinessID(), "whatsapp_id": endUser, "selector": selector})

	if err := validations.ValidateWindow(newStart, newEnd); err != nil {
		return reject(fmt.Sprintf("❌ Formato de fecha/hora inválido. Error: %v", err)), nil
	}

	loc := tc.Location()
	start, end := newStart.In(loc), newEnd.In(loc)

	events, err := s.upcoming(ctx, tc, timeutils.StartOfDay(s.now().In(loc)))
	if err != nil {
		return domainCalendar.Outcome{}, err
	}

	target, msg := selectOwned(events, endUser, selector, "reagendar")
	if target == nil {
		return reject(msg), nil
	}

	if msg, ok := withinHours(tc.Business.Settings, start, "Por favor elige otro día."); !ok {
		return reject(msg), nil
	}
	if msg, full := capacityExceeded(events, start, end, target.ID, tc.Business.Settings.MaxConcurrent()); full {
		return reject("❌ No se puede reagendar la cita. " + msg), nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.provider.UpdateEventTime(cctx, s.calendarID(tc), target.ID, start, end, loc.String()); err != nil {
		log.WithError(err).Error("[CALENDAR] Failed to move event")
		return reject("❌ No se pudo reagendar la cita. Por favor, intenta de nuevo."), nil
	}

	log.WithField("event_id", target.ID).Info("[CALENDAR] Appointment moved")
	return domainCalendar.Outcome{
		OK: true,
		Message: fmt.Sprintf("✅ Tu cita '%s' ha sido reagendada exitosamente para el %s a las %s, parce! 📅",
			summaryOr(target.Summary), start.Format(time.DateOnly), timeutils.ClockLabel(start)),
		Event: target,
	}, nil
}

func (s *calendarService) Remove(ctx context.Context, tc domainTenant.Context, endUser, selector string) (domainCalendar.Outcome, error) {
	log := logrus.WithFields(logrus.Fields{"business_id": tc.BusinessID(), "whatsapp_id": endUser, "selector": selector})
	loc := tc.Location()

	events, err := s.upcoming(ctx, tc, timeutils.StartOfDay(s.now().In(loc)))
	if err != nil {
		return domainCalendar.Outcome{}, err
	}

	target, msg := selectOwned(events, endUser, selector, "cancelar")
	if target == nil {
		return reject(msg), nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.provider.DeleteEvent(cctx, s.calendarID(tc), target.ID); err != nil {
		log.WithError(err).Error("[CALENDAR] Failed to delete event")
		return reject("❌ No se pudo cancelar la cita. Por favor, intenta de nuevo."), nil
	}

	start := target.Start.In(loc)
	log.WithField("event_id", target.ID).Info("[CALENDAR] Appointment cancelled")
	return domainCalendar.Outcome{
		OK: true,
		Message: fmt.Sprintf("✅ Tu cita '%s' programada para %s %s ha sido cancelada exitosamente, parce. Si necesitas reagendar, aquí estoy para ayudarte! 📅",
			summaryOr(target.Summary), start.Format(time.DateOnly), timeutils.ClockLabel(start)),
		Event: target,
	}, nil
}

func (s *calendarService) saveCustomer(ctx context.Context, req domainCalendar.BookRequest, log *logrus.Entry) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" || s.customers == nil {
		return
	}
	var age *int
	if raw := strings.TrimSpace(req.CustomerAge); validations.AgeDigits(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			age = &n
		}
	}
	if _, err := s.customers.Upsert(ctx, req.EndUser, name, age); err != nil {
		log.WithError(err).Warn("[CALENDAR] Could not save customer info")
	}
}

// withinHours valida que el inicio caiga dentro del horario efectivo del día.
func withinHours(settings domainTenant.Settings, start time.Time, closedHint string) (string, bool) {
	weekday := start.Weekday()
	openMin, closeMin, closed := settings.OpeningHours(weekday)
	if closed {
		return fmt.Sprintf("❌ Lo siento, estamos cerrados los %s. %s", timeutils.SpanishWeekdayPlural(weekday), closedHint), false
	}
	minute := start.Hour()*60 + start.Minute()
	if minute < openMin || minute >= closeMin {
		return fmt.Sprintf("❌ Lo siento, el horario solicitado (%s) está fuera de nuestro horario de atención. Los %s atendemos de %s a %s. Por favor elige un horario dentro de este rango.",
			timeutils.ClockLabel(start), timeutils.SpanishWeekdayPlural(weekday),
			domainTenant.FormatClock(openMin), domainTenant.FormatClock(closeMin)), false
	}
	return "", true
}

// overlapping devuelve los eventos con hora exacta que se solapan con [start, end).
// Los eventos de todo el día y skipID quedan fuera.
func overlapping(events []domainCalendar.Event, start, end time.Time, skipID string) []domainCalendar.Event {
	var out []domainCalendar.Event
	for _, ev := range events {
		if ev.AllDay || ev.Start.IsZero() || ev.End.IsZero() {
			continue
		}
		if skipID != "" && ev.ID == skipID {
			continue
		}
		if domainCalendar.Overlaps(ev.Start, ev.End, start, end) {
			out = append(out, ev)
		}
	}
	return out
}

func capacityExceeded(events []domainCalendar.Event, start, end time.Time, skipID string, limit int) (string, bool) {
	hits := overlapping(events, start, end, skipID)
	if len(hits) < limit {
		return "", false
	}
	names := make([]string, len(hits))
	for i, ev := range hits {
		names[i] = summaryOr(ev.Summary)
	}
	return fmt.Sprintf("Ya hay %d eventos programados en ese horario: %s. Máximo permitido: %d eventos simultáneos.",
		len(hits), strings.Join(names, ", "), limit), true
}

// selectOwned elige el evento del usuario según el selector. "latest" o vacío
// toma el creado más recientemente; otro valor busca en el título sin distinguir mayúsculas.
func selectOwned(events []domainCalendar.Event, endUser, selector, verb string) (*domainCalendar.Event, string) {
	type ranked struct {
		ev  domainCalendar.Event
		pos int
	}
	var owned []ranked
	for i, ev := range events {
		if ev.OwnedBy(endUser) {
			owned = append(owned, ranked{ev: ev, pos: i})
		}
	}
	if len(owned) == 0 {
		return nil, fmt.Sprintf("❌ No se encontraron citas para %s.", verb)
	}

	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, domainCalendar.SelectorLatest) {
		sort.SliceStable(owned, func(i, j int) bool {
			ci, cj := owned[i].ev.Created, owned[j].ev.Created
			if !ci.Equal(cj) {
				return ci.After(cj)
			}
			return owned[i].pos > owned[j].pos
		})
		ev := owned[0].ev
		return &ev, ""
	}

	needle := strings.ToLower(selector)
	for _, r := range owned {
		if strings.Contains(strings.ToLower(r.ev.Summary), needle) {
			ev := r.ev
			return &ev, ""
		}
	}
	return nil, fmt.Sprintf("❌ No se encontró una cita que coincida con '%s'.", selector)
}

func summaryOr(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return "Cita"
	}
	return summary
}

func reject(msg string) domainCalendar.Outcome {
	return domainCalendar.Outcome{OK: false, Message: msg}
}
