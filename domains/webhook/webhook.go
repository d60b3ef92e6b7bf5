package webhook

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Payload mirrors the WhatsApp Cloud API webhook body.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// InboundMessage is the part of a webhook the pipeline works with.
type InboundMessage struct {
	MessageID   string    `json:"message_id"`
	From        string    `json:"from"`
	ProfileName string    `json:"profile_name,omitempty"`
	Text        string    `json:"text"`
	RoutingKey  string    `json:"phone_number_id"`
	ReceivedAt  time.Time `json:"received_at"`
}

// firstValue returns the first change value, if any.
func (p Payload) firstValue() (Value, bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return Value{}, false
	}
	return p.Entry[0].Changes[0].Value, true
}

// IsStatusUpdate reports delivery/read receipts.
func (p Payload) IsStatusUpdate() bool {
	v, ok := p.firstValue()
	return ok && len(v.Statuses) > 0
}

// Inbound extracts the first text message. ok is false for any other event.
func (p Payload) Inbound() (InboundMessage, bool) {
	v, ok := p.firstValue()
	if !ok || len(v.Messages) == 0 {
		return InboundMessage{}, false
	}
	msg := v.Messages[0]
	if msg.Type != "text" || msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
		return InboundMessage{}, false
	}

	in := InboundMessage{
		MessageID:  msg.ID,
		From:       msg.From,
		Text:       msg.Text.Body,
		RoutingKey: v.Metadata.PhoneNumberID,
		ReceivedAt: time.Now().UTC(),
	}
	if len(v.Contacts) > 0 {
		if v.Contacts[0].WaID != "" {
			in.From = v.Contacts[0].WaID
		}
		in.ProfileName = v.Contacts[0].Profile.Name
	}
	if ts, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil && ts > 0 {
		in.ReceivedAt = time.Unix(ts, 0).UTC()
	}
	return in, in.From != ""
}

// Result describes what the pipeline did with one inbound message.
type Result struct {
	Duplicate bool   `json:"duplicate,omitempty"`
	Queued    bool   `json:"queued,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Delivered bool   `json:"delivered"`
}

type IProcessor interface {
	// Admit runs the dedup gate; true means the message must be skipped.
	Admit(ctx context.Context, in InboundMessage) (duplicate bool)
	// Process runs the full turn for an admitted message.
	Process(ctx context.Context, in InboundMessage) Result
}
