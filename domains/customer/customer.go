package customer

import (
	"context"
	"time"
)

// DefaultName is used when the end-user never gave a name.
const DefaultName = "Cliente"

type Customer struct {
	ID         uint      `json:"id"`
	WhatsAppID string    `json:"whatsapp_id"`
	Name       string    `json:"name"`
	Age        *int      `json:"age,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type IRepository interface {
	Init(ctx context.Context) error
	// Get returns pkgError.NotFoundError when no customer exists.
	Get(ctx context.Context, whatsappID string) (Customer, error)
	// Upsert creates or updates by whatsapp id. A nil age keeps the stored one.
	Upsert(ctx context.Context, whatsappID, name string, age *int) (Customer, error)
}
