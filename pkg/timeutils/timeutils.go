package timeutils

import (
	"fmt"
	"strings"
	"time"
)

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// SpanishWeekday returns the lowercase Spanish name of d.
func SpanishWeekday(d time.Weekday) string {
	return spanishWeekdays[d]
}

// SpanishWeekdayPlural is the form used in "los lunes", "los sábados".
func SpanishWeekdayPlural(d time.Weekday) string {
	name := SpanishWeekday(d)
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

// Capitalize upper-cases the first rune ("lunes" -> "Lunes").
func Capitalize(s string) string {
	for i, r := range s {
		return strings.ToUpper(string(r)) + s[i+len(string(r)):]
	}
	return s
}

// SlotLabel renders a slot start the way it is shown to customers: "8:00 AM".
func SlotLabel(t time.Time) string {
	return t.Format("3:04 PM")
}

// ClockLabel is the zero-padded 12h form used in confirmations: "09:00 AM".
func ClockLabel(t time.Time) string {
	return t.Format("03:04 PM")
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseLocalDateTime reads an ISO-like date time as a wall clock in loc.
// Any trailing "Z" or UTC offset is dropped: models tend to append one even
// when they mean the business' local time.
func ParseLocalDateTime(v string, loc *time.Location) (time.Time, error) {
	clean := stripZone(strings.TrimSpace(v))
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, clean, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date time %q, expected YYYY-MM-DDTHH:MM:SS", v)
}

// ParseLocalDate reads YYYY-MM-DD as midnight in loc.
func ParseLocalDate(v string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(v), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

func stripZone(v string) string {
	v = strings.TrimSuffix(v, "Z")
	t := strings.IndexAny(v, "T ")
	if t < 0 {
		return v
	}
	timePart := v[t:]
	if i := strings.IndexAny(timePart, "+-"); i >= 0 {
		return v[:t+i]
	}
	// fracciones de segundo
	if i := strings.Index(timePart, "."); i >= 0 {
		return v[:t+i]
	}
	return v
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
