package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	infraCalendar "github.com/AzielCF/az-citas/infrastructure/calendar"
	"github.com/AzielCF/az-citas/repository"
)

func newTestCalendarService(t *testing.T) (*calendarService, *infraCalendar.MemoryCalendar, *repository.CustomerGormRepository) {
	t.Helper()
	mem := infraCalendar.NewMemoryCalendar()
	customers := repository.NewCustomerGormRepository(newTestDB(t))
	require.NoError(t, customers.Init(context.Background()))

	svc := NewCalendarService(mem, customers, CalendarOptions{}).(*calendarService)
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc, mem, customers
}

func seedEvent(mem *infraCalendar.MemoryCalendar, summary, owner string, start time.Time, d time.Duration) {
	mem.Seed("cal-1", domainCalendar.Event{
		Summary:     summary,
		Description: domainCalendar.CorrelationTag(owner),
		Start:       start,
		End:         start.Add(d),
	})
}

func TestCalendarService_BookRejectsAtCapacity(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestCalendarService(t)
	loc := bogota(t)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)

	seedEvent(mem, "Corte A", "111", start, time.Hour)
	seedEvent(mem, "Corte B", "222", start.Add(30*time.Minute), time.Hour)

	out, err := svc.Book(ctx, barberia(), domainCalendar.BookRequest{
		EndUser: "573001112233",
		Summary: "Corte",
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "Ya hay 2 eventos programados en ese horario")
	assert.Contains(t, out.Message, "Corte A")
	assert.Contains(t, out.Message, "Máximo permitido: 2")

	events, err := mem.ListEvents(ctx, "cal-1", start.Add(-time.Hour), 50)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCalendarService_TouchingEventsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestCalendarService(t)
	loc := bogota(t)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)

	// dos citas que terminan justo cuando empieza la nueva
	seedEvent(mem, "Antes 1", "111", start.Add(-time.Hour), time.Hour)
	seedEvent(mem, "Antes 2", "222", start.Add(-time.Hour), time.Hour)

	out, err := svc.Book(ctx, barberia(), domainCalendar.BookRequest{
		EndUser: "573001112233",
		Summary: "Corte",
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, out.OK, out.Message)
	assert.Equal(t, "✅ Tu cita 'Corte' ha sido agendada exitosamente para el 2026-03-10 a las 10:00 AM, parce! 📅", out.Message)
	require.NotNil(t, out.Event)
	assert.True(t, out.Event.OwnedBy("573001112233"))
	assert.Equal(t, "Calle 10 # 5-20", out.Event.Location)
}

func TestCalendarService_AllDayEventsAreIgnored(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestCalendarService(t)
	loc := bogota(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	for i := 0; i < 3; i++ {
		mem.Seed("cal-1", domainCalendar.Event{Summary: "Festivo", Start: day, End: day.AddDate(0, 0, 1), AllDay: true})
	}

	out, err := svc.Book(ctx, barberia(), domainCalendar.BookRequest{
		EndUser: "573001112233",
		Summary: "Corte",
		Start:   day.Add(9 * time.Hour),
		End:     day.Add(10 * time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, out.OK, out.Message)
}

func TestCalendarService_BookValidatesHours(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCalendarService(t)
	loc := bogota(t)

	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, loc)
	out, err := svc.Book(ctx, barberia(), domainCalendar.BookRequest{EndUser: "1", Summary: "Corte", Start: sunday, End: sunday.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, "❌ Lo siento, estamos cerrados los domingos. Por favor elige otro día.", out.Message)

	late := time.Date(2026, 3, 10, 19, 0, 0, 0, loc)
	out, err = svc.Book(ctx, barberia(), domainCalendar.BookRequest{EndUser: "1", Summary: "Corte", Start: late, End: late.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "(07:00 PM) está fuera de nuestro horario de atención")
	assert.Contains(t, out.Message, "Los martes atendemos de 08:00 a 19:00")
}

func TestCalendarService_BookSavesCustomer(t *testing.T) {
	ctx := context.Background()
	svc, _, customers := newTestCalendarService(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, bogota(t))

	_, err := svc.Book(ctx, barberia(), domainCalendar.BookRequest{
		EndUser:      "573001112233",
		Summary:      "Corte",
		Start:        start,
		End:          start.Add(time.Hour),
		CustomerName: " Juan Pérez ",
		CustomerAge:  "treinta",
	})
	require.NoError(t, err)

	cust, err := customers.Get(ctx, "573001112233")
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", cust.Name)
	assert.Nil(t, cust.Age)
}

func TestCalendarService_FindOpenSlots(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestCalendarService(t)
	loc := bogota(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	seedEvent(mem, "A", "1", day.Add(9*time.Hour), time.Hour)
	seedEvent(mem, "B", "2", day.Add(9*time.Hour), time.Hour)

	res, err := svc.FindOpenSlots(ctx, barberia(), day, domainCalendar.BucketMorning)
	require.NoError(t, err)
	labels := make([]string, 0, len(res.Slots))
	for _, s := range res.Slots {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"8:00 AM", "10:00 AM", "11:00 AM"}, labels)
	assert.Equal(t, "📅 Horarios disponibles para 2026-03-10 (mañana):\n\n🕐 8:00 AM, 10:00 AM, 11:00 AM\n\n¿Cuál te gustaría?", res.Message)

	res, err = svc.FindOpenSlots(ctx, barberia(), day.AddDate(0, 0, 5), domainCalendar.BucketAll)
	require.NoError(t, err)
	assert.True(t, res.Closed)
	assert.Equal(t, "❌ Lo siento, estamos cerrados los domingos. ¿Te gustaría agendar para otro día?", res.Message)
}

func TestCalendarService_SlotsStartAtFirstFullHour(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCalendarService(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, bogota(t))

	tc := barberia()
	tc.Business.Settings.BusinessHours = map[string]domainTenant.DayHours{
		"tuesday": {Open: "08:30", Close: "12:00"},
	}

	res, err := svc.FindOpenSlots(ctx, tc, day, domainCalendar.BucketMorning)
	require.NoError(t, err)
	labels := make([]string, 0, len(res.Slots))
	for _, s := range res.Slots {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"9:00 AM", "10:00 AM", "11:00 AM"}, labels)

	// cada turno ofrecido tiene que poder agendarse
	for i, s := range res.Slots {
		out, err := svc.Book(ctx, tc, domainCalendar.BookRequest{
			EndUser: fmt.Sprintf("57300111220%d", i),
			Summary: "Corte",
			Start:   s.Start,
			End:     s.End,
		})
		require.NoError(t, err)
		assert.True(t, out.OK, out.Message)
	}
}

func TestCalendarService_MoveAndRemoveOnlyOwnEvents(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestCalendarService(t)
	loc := bogota(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	mem.Seed("cal-1",
		domainCalendar.Event{ID: "old", Summary: "Corte", Description: domainCalendar.CorrelationTag("555"), Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour), Created: day.Add(-48 * time.Hour)},
		domainCalendar.Event{ID: "new", Summary: "Barba", Description: domainCalendar.CorrelationTag("555"), Start: day.Add(11 * time.Hour), End: day.Add(12 * time.Hour), Created: day.Add(-24 * time.Hour)},
		// el id de otro usuario contiene al primero como subcadena
		domainCalendar.Event{ID: "other", Summary: "Corte", Description: domainCalendar.CorrelationTag("5551"), Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour), Created: day},
	)

	out, err := svc.Move(ctx, barberia(), "555", day.Add(16*time.Hour), day.Add(17*time.Hour), "latest")
	require.NoError(t, err)
	require.True(t, out.OK, out.Message)
	assert.Equal(t, "new", out.Event.ID)
	assert.Equal(t, "✅ Tu cita 'Barba' ha sido reagendada exitosamente para el 2026-03-10 a las 04:00 PM, parce! 📅", out.Message)

	out, err = svc.Remove(ctx, barberia(), "555", "CORTE")
	require.NoError(t, err)
	require.True(t, out.OK, out.Message)
	assert.Equal(t, "old", out.Event.ID)

	out, err = svc.Remove(ctx, barberia(), "555", "tinte")
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, "❌ No se encontró una cita que coincida con 'tinte'.", out.Message)

	out, err = svc.Remove(ctx, barberia(), "999", "latest")
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, "❌ No se encontraron citas para cancelar.", out.Message)

	events, err := mem.ListEvents(ctx, "cal-1", day, 50)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, ev := range events {
		ids[ev.ID] = true
	}
	assert.True(t, ids["other"])
	assert.True(t, ids["new"])
	assert.False(t, ids["old"])
}

func TestOverlappingBoundary(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	events := []domainCalendar.Event{{ID: "a", Start: base, End: base.Add(time.Hour)}}

	assert.Empty(t, overlapping(events, base.Add(time.Hour), base.Add(2*time.Hour), ""))
	assert.Empty(t, overlapping(events, base.Add(-time.Hour), base, ""))
	assert.Len(t, overlapping(events, base.Add(59*time.Minute), base.Add(2*time.Hour), ""), 1)
	assert.Empty(t, overlapping(events, base, base.Add(time.Hour), "a"))
}
