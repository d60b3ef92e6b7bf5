package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

// MemoryCalendar is an in-process calendar used in mock mode and tests.
type MemoryCalendar struct {
	mu        sync.RWMutex
	calendars map[string]map[string]domainCalendar.Event
	now       func() time.Time
}

func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{
		calendars: make(map[string]map[string]domainCalendar.Event),
		now:       time.Now,
	}
}

// Seed inserts events as-is; useful for tests that need a pre-populated calendar.
func (m *MemoryCalendar) Seed(calendarID string, events ...domainCalendar.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		m.bucket(calendarID)[ev.ID] = ev
	}
}

func (m *MemoryCalendar) bucket(calendarID string) map[string]domainCalendar.Event {
	b, ok := m.calendars[calendarID]
	if !ok {
		b = make(map[string]domainCalendar.Event)
		m.calendars[calendarID] = b
	}
	return b
}

// ListEvents devuelve eventos que terminan después de from, ordenados por inicio.
func (m *MemoryCalendar) ListEvents(_ context.Context, calendarID string, from time.Time, limit int) ([]domainCalendar.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domainCalendar.Event, 0)
	for _, ev := range m.calendars[calendarID] {
		if ev.End.After(from) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryCalendar) CreateEvent(_ context.Context, calendarID string, ev domainCalendar.NewEvent) (domainCalendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := domainCalendar.Event{
		ID:          uuid.NewString(),
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       ev.Start,
		End:         ev.End,
		Created:     m.now(),
	}
	m.bucket(calendarID)[created.ID] = created
	return created, nil
}

func (m *MemoryCalendar) UpdateEventTime(_ context.Context, calendarID, eventID string, start, end time.Time, _ string) (domainCalendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.calendars[calendarID][eventID]
	if !ok {
		return domainCalendar.Event{}, pkgError.NotFoundError("event not found")
	}
	ev.Start, ev.End = start, end
	m.calendars[calendarID][eventID] = ev
	return ev, nil
}

func (m *MemoryCalendar) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.calendars[calendarID][eventID]; !ok {
		return pkgError.NotFoundError("event not found")
	}
	delete(m.calendars[calendarID], eventID)
	return nil
}
