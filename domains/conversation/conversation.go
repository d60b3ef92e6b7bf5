package conversation

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const DefaultHistoryLimit = 10

// Turn is one stored message of a (business, end-user) conversation.
type Turn struct {
	ID         uint      `json:"id"`
	BusinessID string    `json:"business_id"`
	EndUser    string    `json:"whatsapp_id"`
	Role       Role      `json:"role"`
	Text       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type IStore interface {
	Init(ctx context.Context) error
	// Append stores a turn; the timestamp is assigned at write time.
	Append(ctx context.Context, businessID, endUser string, role Role, text string) error
	// ReadRecent returns at most limit turns, oldest first.
	ReadRecent(ctx context.Context, businessID, endUser string, limit int) ([]Turn, error)
}
