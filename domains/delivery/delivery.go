package delivery

import (
	"context"
	"time"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
)

// OutboundMessage is a text reply addressed to an end-user.
type OutboundMessage struct {
	PhoneNumberID string    `json:"phone_number_id"`
	To            string    `json:"to"`
	Body          string    `json:"body"`
	SentAt        time.Time `json:"sent_at"`
}

type ISender interface {
	Send(ctx context.Context, tc domainTenant.Context, to, text string) error
}
