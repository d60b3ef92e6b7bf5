package calendar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
)

const defaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleCalendar habla con Calendar API v3 usando una cuenta de servicio.
type GoogleCalendar struct {
	http   *resty.Client
	tokens *tokenSource
}

type GoogleOptions struct {
	BaseURL string
	Timeout time.Duration
}

func NewGoogleCalendar(sa ServiceAccount, opts GoogleOptions) *GoogleCalendar {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCalendarBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &GoogleCalendar{
		http:   client,
		tokens: newTokenSource(sa, opts.Timeout),
	}
}

type eventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleEvent struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Created     string    `json:"created,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventList struct {
	Items []googleEvent `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleCalendar) request(ctx context.Context) (*resty.Request, *apiError, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, nil, err
	}
	failure := &apiError{}
	return g.http.R().SetContext(ctx).SetAuthToken(token).SetError(failure), failure, nil
}

func check(resp *resty.Response, failure *apiError, op string) error {
	if resp.IsError() {
		return fmt.Errorf("google calendar %s failed (%d): %s", op, resp.StatusCode(), failure.Error.Message)
	}
	return nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, calendarID string, from time.Time, limit int) ([]domainCalendar.Event, error) {
	if limit <= 0 {
		limit = domainCalendar.DefaultListLimit
	}
	req, failure, err := g.request(ctx)
	if err != nil {
		return nil, err
	}

	var out eventList
	resp, err := req.
		SetPathParam("calendarId", calendarID).
		SetQueryParams(map[string]string{
			"timeMin":      from.UTC().Format(time.RFC3339),
			"maxResults":   strconv.Itoa(limit),
			"singleEvents": "true",
			"orderBy":      "startTime",
		}).
		SetResult(&out).
		Get("/calendars/{calendarId}/events")
	if err != nil {
		return nil, fmt.Errorf("google calendar list: %w", err)
	}
	if err := check(resp, failure, "list"); err != nil {
		return nil, err
	}

	events := make([]domainCalendar.Event, 0, len(out.Items))
	for _, item := range out.Items {
		ev, err := item.toDomain()
		if err != nil {
			logrus.WithError(err).WithField("event_id", item.ID).Warn("[CALENDAR] skipping event with unreadable times")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, calendarID string, ev domainCalendar.NewEvent) (domainCalendar.Event, error) {
	req, failure, err := g.request(ctx)
	if err != nil {
		return domainCalendar.Event{}, err
	}

	body := googleEvent{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       eventTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: ev.TimeZone},
		End:         eventTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: ev.TimeZone},
	}
	var out googleEvent
	resp, err := req.
		SetPathParam("calendarId", calendarID).
		SetBody(body).
		SetResult(&out).
		Post("/calendars/{calendarId}/events")
	if err != nil {
		return domainCalendar.Event{}, fmt.Errorf("google calendar insert: %w", err)
	}
	if err := check(resp, failure, "insert"); err != nil {
		return domainCalendar.Event{}, err
	}
	return out.toDomain()
}

// UpdateEventTime hace PATCH solo de start/end; el resto del evento no se toca.
func (g *GoogleCalendar) UpdateEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time, timeZone string) (domainCalendar.Event, error) {
	req, failure, err := g.request(ctx)
	if err != nil {
		return domainCalendar.Event{}, err
	}

	body := map[string]eventTime{
		"start": {DateTime: start.Format(time.RFC3339), TimeZone: timeZone},
		"end":   {DateTime: end.Format(time.RFC3339), TimeZone: timeZone},
	}
	var out googleEvent
	resp, err := req.
		SetPathParams(map[string]string{
			"calendarId": calendarID,
			"eventId":    eventID,
		}).
		SetBody(body).
		SetResult(&out).
		Patch("/calendars/{calendarId}/events/{eventId}")
	if err != nil {
		return domainCalendar.Event{}, fmt.Errorf("google calendar patch: %w", err)
	}
	if err := check(resp, failure, "patch"); err != nil {
		return domainCalendar.Event{}, err
	}
	return out.toDomain()
}

func (g *GoogleCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	req, failure, err := g.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetPathParams(map[string]string{
			"calendarId": calendarID,
			"eventId":    eventID,
		}).
		Delete("/calendars/{calendarId}/events/{eventId}")
	if err != nil {
		return fmt.Errorf("google calendar delete: %w", err)
	}
	return check(resp, failure, "delete")
}

func (e googleEvent) toDomain() (domainCalendar.Event, error) {
	ev := domainCalendar.Event{
		ID:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
	}
	if e.Created != "" {
		if created, err := time.Parse(time.RFC3339, e.Created); err == nil {
			ev.Created = created
		}
	}

	// Eventos de día completo solo traen "date".
	if e.Start.DateTime == "" || e.End.DateTime == "" {
		ev.AllDay = true
		if d, err := time.Parse(time.DateOnly, e.Start.Date); err == nil {
			ev.Start = d
		}
		if d, err := time.Parse(time.DateOnly, e.End.Date); err == nil {
			ev.End = d
		}
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, e.Start.DateTime)
	if err != nil {
		return ev, fmt.Errorf("invalid start %q: %w", e.Start.DateTime, err)
	}
	end, err := time.Parse(time.RFC3339, e.End.DateTime)
	if err != nil {
		return ev, fmt.Errorf("invalid end %q: %w", e.End.DateTime, err)
	}
	ev.Start, ev.End = start, end
	return ev, nil
}
