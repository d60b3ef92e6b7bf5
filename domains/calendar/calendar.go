package calendar

import (
	"context"
	"time"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
)

const (
	DefaultListLimit = 50
	SelectorLatest   = "latest"
)

// Event is an appointment as stored by the external calendar.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day,omitempty"`
	Created     time.Time `json:"created,omitempty"`
}

type NewEvent struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// IProvider is the thin wrapper over the calendar backend.
type IProvider interface {
	ListEvents(ctx context.Context, calendarID string, from time.Time, limit int) ([]Event, error)
	CreateEvent(ctx context.Context, calendarID string, ev NewEvent) (Event, error)
	UpdateEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time, timeZone string) (Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Slot is a bookable one-hour window.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

type SlotsResult struct {
	Date    string `json:"date"`
	Bucket  Bucket `json:"time_range"`
	Closed  bool   `json:"closed"`
	Slots   []Slot `json:"slots"`
	Message string `json:"message"`
}

type BookRequest struct {
	EndUser      string
	Summary      string
	Start        time.Time
	End          time.Time
	CustomerName string
	CustomerAge  string
	Description  string
	Location     string
}

// Outcome is a confirmation (OK) or a rejection with a user-facing message.
type Outcome struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
	Event   *Event `json:"event,omitempty"`
}

type IGateway interface {
	FindOpenSlots(ctx context.Context, tc domainTenant.Context, date time.Time, bucket Bucket) (SlotsResult, error)
	Book(ctx context.Context, tc domainTenant.Context, req BookRequest) (Outcome, error)
	Move(ctx context.Context, tc domainTenant.Context, endUser string, newStart, newEnd time.Time, selector string) (Outcome, error)
	Remove(ctx context.Context, tc domainTenant.Context, endUser, selector string) (Outcome, error)
}

// Overlaps is the half-open interval test: touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
