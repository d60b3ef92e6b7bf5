package calendar

import (
	"strings"
)

// Events carry the end-user identity in their description as one line:
//
//	[WhatsApp ID: <wa_id>]
//
// The calendar has no user foreign key, so this tag is the only link back.
const (
	correlationOpen  = "[WhatsApp ID: "
	correlationClose = "]"
)

// CorrelationTag renders the tag for an end-user id.
func CorrelationTag(endUser string) string {
	return correlationOpen + endUser + correlationClose
}

// WithCorrelation appends the tag to a free-text description.
func WithCorrelation(description, endUser string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return CorrelationTag(endUser)
	}
	return description + "\n" + CorrelationTag(endUser)
}

// ParseCorrelation extracts the end-user id from a description.
func ParseCorrelation(description string) (string, bool) {
	idx := strings.LastIndex(description, correlationOpen)
	if idx < 0 {
		return "", false
	}
	rest := description[idx+len(correlationOpen):]
	end := strings.Index(rest, correlationClose)
	if end < 0 {
		return "", false
	}
	id := strings.TrimSpace(rest[:end])
	if id == "" {
		return "", false
	}
	return id, true
}

// OwnedBy reports whether the event carries the tag of endUser.
func (e Event) OwnedBy(endUser string) bool {
	id, ok := ParseCorrelation(e.Description)
	return ok && id == endUser
}
