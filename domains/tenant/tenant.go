package tenant

import (
	"context"
	"time"
)

const (
	DefaultBusinessType  = "barberia"
	DefaultMaxConcurrent = 2
	DefaultTimezone      = "America/Bogota"
	DefaultCountry       = "Colombia"
	DefaultOpen          = "08:00"
	DefaultClose         = "19:00"
)

// Business is one customer organization using the shared bot.
type Business struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BusinessType string    `json:"business_type"`
	Settings     Settings  `json:"settings"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WhatsAppNumber binds a provider phone_number_id to a business.
type WhatsAppNumber struct {
	ID            string `json:"id"`
	BusinessID    string `json:"business_id"`
	PhoneNumberID string `json:"phone_number_id"`
	PhoneNumber   string `json:"phone_number"`
	AccessToken   string `json:"-"`
	APIVersion    string `json:"api_version,omitempty"`
	IsActive      bool   `json:"is_active"`
}

// Context is the immutable view of a tenant handed to the rest of the pipeline.
type Context struct {
	Business  Business
	Number    WhatsAppNumber
	IsDefault bool
}

func (c Context) BusinessID() string {
	return c.Business.ID
}

// Location returns the tenant timezone, UTC when it cannot be loaded.
func (c Context) Location() *time.Location {
	tz := c.Business.Settings.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CreateBusinessRequest is the admin payload for a new tenant.
type CreateBusinessRequest struct {
	Name         string   `json:"name"`
	BusinessType string   `json:"business_type"`
	Settings     Settings `json:"settings"`
}

// BindNumberRequest attaches a routing key to an existing business.
type BindNumberRequest struct {
	BusinessID    string `json:"business_id"`
	PhoneNumberID string `json:"phone_number_id"`
	PhoneNumber   string `json:"phone_number"`
	AccessToken   string `json:"access_token"`
	APIVersion    string `json:"api_version"`
}

type IResolver interface {
	// Resolve returns pkgError.NotFoundError when the routing key is not bound.
	Resolve(ctx context.Context, routingKey string) (Context, error)
	// ResolveOrDefault never fails: unmapped keys get the default context.
	ResolveOrDefault(ctx context.Context, routingKey string) Context
}

type IRepository interface {
	Init(ctx context.Context) error
	FindByPhoneNumberID(ctx context.Context, phoneNumberID string) (Business, WhatsAppNumber, error)
	CreateBusiness(ctx context.Context, b Business) (Business, error)
	GetBusiness(ctx context.Context, id string) (Business, error)
	ListBusinesses(ctx context.Context) ([]Business, error)
	SetBusinessActive(ctx context.Context, id string, active bool) error
	BindNumber(ctx context.Context, n WhatsAppNumber) (WhatsAppNumber, error)
}

type IAdminUsecase interface {
	CreateBusiness(ctx context.Context, req CreateBusinessRequest) (Business, error)
	BindNumber(ctx context.Context, req BindNumberRequest) (WhatsAppNumber, error)
	ListBusinesses(ctx context.Context) ([]Business, error)
	SetBusinessActive(ctx context.Context, id string, active bool) error
}
