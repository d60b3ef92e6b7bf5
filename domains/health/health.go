package health

import (
	"context"
	"time"
)

type Status string

const (
	StatusOk    Status = "OK"
	StatusError Status = "ERROR"
)

// Probe checks one backing dependency (database, valkey...).
type Probe struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthRecord struct {
	Component   string    `json:"component"`
	Status      Status    `json:"status"`
	LastMessage string    `json:"last_message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
	LatencyMS   int64     `json:"latency_ms"`
}

type IHealthUsecase interface {
	// CheckAll runs every probe; healthy is false when any of them failed.
	CheckAll(ctx context.Context) (records []HealthRecord, healthy bool)
}
