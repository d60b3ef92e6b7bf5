package tenant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Settings is the typed form of the business settings document.
type Settings struct {
	Address        string              `json:"address,omitempty"`
	City           string              `json:"city,omitempty"`
	State          string              `json:"state,omitempty"`
	Country        string              `json:"country,omitempty"`
	Phone          string              `json:"phone,omitempty"`
	Timezone       string              `json:"timezone,omitempty"`
	Language       string              `json:"language,omitempty"`
	CalendarID     string              `json:"calendar_id,omitempty"`
	AIPrompt       string              `json:"ai_prompt,omitempty"`
	BusinessHours  map[string]DayHours `json:"business_hours,omitempty"`
	Services       []Service           `json:"services,omitempty"`
	PaymentMethods []string            `json:"payment_methods,omitempty"`
	Promotions     []string            `json:"promotions,omitempty"`
	Staff          []StaffMember       `json:"staff,omitempty"`
	Appointment    AppointmentSettings `json:"appointment_settings"`
}

type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close,omitempty"`
}

// Closed reports the `"open": "closed"` marker.
func (d DayHours) Closed() bool {
	return strings.EqualFold(strings.TrimSpace(d.Open), "closed")
}

type Service struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration int    `json:"duration,omitempty"` // minutos
}

type StaffMember struct {
	Name        string   `json:"name"`
	Specialties []string `json:"specialties,omitempty"`
}

type AppointmentSettings struct {
	MaxConcurrent int `json:"max_concurrent,omitempty"`
}

// Weekdays in settings key order.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// WeekdayKey maps a weekday to its settings key ("monday"...).
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ParseSettings decodes a settings document. Empty input yields zero settings.
func ParseSettings(raw []byte) (Settings, error) {
	var s Settings
	if len(strings.TrimSpace(string(raw))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings document: %w", err)
	}
	return s, nil
}

// MaxConcurrent returns the capacity limit, DefaultMaxConcurrent when unset.
func (s Settings) MaxConcurrent() int {
	if s.Appointment.MaxConcurrent <= 0 {
		return DefaultMaxConcurrent
	}
	return s.Appointment.MaxConcurrent
}

// OpeningHours returns the effective open/close window for a weekday in
// minutes since midnight. closed is true for a day marked "closed".
// Missing or malformed values fall back to 08:00-19:00.
func (s Settings) OpeningHours(d time.Weekday) (openMin, closeMin int, closed bool) {
	day, ok := s.BusinessHours[WeekdayKey(d)]
	if ok && day.Closed() {
		return 0, 0, true
	}
	openMin, _ = ParseClock(DefaultOpen)
	closeMin, _ = ParseClock(DefaultClose)
	if !ok {
		return openMin, closeMin, false
	}
	o, errOpen := ParseClock(day.Open)
	c, errClose := ParseClock(day.Close)
	if errOpen != nil || errClose != nil || c <= o {
		return openMin, closeMin, false
	}
	return o, c, false
}

// ParseClock parses "HH:MM" (or "HH") into minutes since midnight.
func ParseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("empty clock value")
	}
	hh, mm, found := strings.Cut(v, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m := 0
	if found {
		m, err = strconv.Atoi(mm)
		if err != nil || m < 0 || m > 59 {
			return 0, fmt.Errorf("invalid minute in %q", v)
		}
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
