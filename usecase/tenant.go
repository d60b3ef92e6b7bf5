package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-citas/core/config"
	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
	"github.com/AzielCF/az-citas/validations"
)

// DefaultTenantContext arma el contexto para números no registrados a partir
// de la configuración. El archivo de settings es opcional.
func DefaultTenantContext(def config.DefaultTenantConfig, wa config.WhatsappConfig) (domainTenant.Context, error) {
	var settings domainTenant.Settings
	if def.SettingsFile != "" {
		raw, err := os.ReadFile(def.SettingsFile)
		if err != nil {
			return domainTenant.Context{}, fmt.Errorf("failed to read default settings: %w", err)
		}
		settings, err = domainTenant.ParseSettings(raw)
		if err != nil {
			return domainTenant.Context{}, err
		}
		if err := validations.ValidateSettings(settings); err != nil {
			return domainTenant.Context{}, fmt.Errorf("default settings: %w", err)
		}
	}

	business := domainTenant.Business{
		Name:         def.BusinessName,
		BusinessType: def.BusinessType,
		Settings:     withSettingDefaults(settings),
		IsActive:     true,
	}
	if business.BusinessType == "" {
		business.BusinessType = domainTenant.DefaultBusinessType
	}
	return domainTenant.Context{
		Business: business,
		Number: domainTenant.WhatsAppNumber{
			PhoneNumberID: wa.PhoneNumberID,
			APIVersion:    wa.APIVersion,
			IsActive:      true,
		},
		IsDefault: true,
	}, nil
}

func withSettingDefaults(s domainTenant.Settings) domainTenant.Settings {
	if s.Timezone == "" {
		s.Timezone = domainTenant.DefaultTimezone
	}
	if s.Country == "" {
		s.Country = domainTenant.DefaultCountry
	}
	if s.Appointment.MaxConcurrent <= 0 {
		s.Appointment.MaxConcurrent = domainTenant.DefaultMaxConcurrent
	}
	return s
}

type tenantService struct {
	repo       domainTenant.IRepository
	defaultCtx domainTenant.Context
}

func NewTenantService(repo domainTenant.IRepository, defaultCtx domainTenant.Context) domainTenant.IResolver {
	defaultCtx.IsDefault = true
	return &tenantService{repo: repo, defaultCtx: defaultCtx}
}

func (s *tenantService) Resolve(ctx context.Context, routingKey string) (domainTenant.Context, error) {
	routingKey = strings.TrimSpace(routingKey)
	if routingKey == "" {
		return domainTenant.Context{}, pkgError.NotFoundError("empty routing key")
	}

	business, number, err := s.repo.FindByPhoneNumberID(ctx, routingKey)
	if err != nil {
		return domainTenant.Context{}, err
	}
	business.Settings = withSettingDefaults(business.Settings)
	if business.BusinessType == "" {
		business.BusinessType = domainTenant.DefaultBusinessType
	}
	return domainTenant.Context{Business: business, Number: number}, nil
}

func (s *tenantService) ResolveOrDefault(ctx context.Context, routingKey string) domainTenant.Context {
	tc, err := s.Resolve(ctx, routingKey)
	if err == nil {
		return tc
	}

	log := logrus.WithField("phone_number_id", routingKey)
	var notFound pkgError.NotFoundError
	if errors.As(err, &notFound) {
		log.Info("[TENANT] Routing key not mapped, using default context")
	} else {
		log.WithError(err).Error("[TENANT] Lookup failed, using default context")
	}

	def := s.defaultCtx
	if def.Number.PhoneNumberID == "" {
		def.Number.PhoneNumberID = routingKey
	}
	return def
}

type tenantAdminService struct {
	repo domainTenant.IRepository
}

func NewTenantAdminService(repo domainTenant.IRepository) domainTenant.IAdminUsecase {
	return &tenantAdminService{repo: repo}
}

func (s *tenantAdminService) CreateBusiness(ctx context.Context, req domainTenant.CreateBusinessRequest) (domainTenant.Business, error) {
	if err := validations.ValidateCreateBusiness(ctx, req); err != nil {
		return domainTenant.Business{}, err
	}
	if req.BusinessType == "" {
		req.BusinessType = domainTenant.DefaultBusinessType
	}

	b, err := s.repo.CreateBusiness(ctx, domainTenant.Business{
		Name:         strings.TrimSpace(req.Name),
		BusinessType: req.BusinessType,
		Settings:     req.Settings,
		IsActive:     true,
	})
	if err != nil {
		return domainTenant.Business{}, fmt.Errorf("failed to create business: %w", err)
	}
	logrus.WithFields(logrus.Fields{"business_id": b.ID, "name": b.Name}).Info("[TENANT] Business created")
	return b, nil
}

func (s *tenantAdminService) BindNumber(ctx context.Context, req domainTenant.BindNumberRequest) (domainTenant.WhatsAppNumber, error) {
	if err := validations.ValidateBindNumber(ctx, req); err != nil {
		return domainTenant.WhatsAppNumber{}, err
	}
	if _, err := s.repo.GetBusiness(ctx, req.BusinessID); err != nil {
		return domainTenant.WhatsAppNumber{}, err
	}

	n, err := s.repo.BindNumber(ctx, domainTenant.WhatsAppNumber{
		BusinessID:    req.BusinessID,
		PhoneNumberID: req.PhoneNumberID,
		PhoneNumber:   req.PhoneNumber,
		AccessToken:   req.AccessToken,
		APIVersion:    req.APIVersion,
		IsActive:      true,
	})
	if err != nil {
		return domainTenant.WhatsAppNumber{}, fmt.Errorf("failed to bind number: %w", err)
	}
	logrus.WithFields(logrus.Fields{"business_id": req.BusinessID, "phone_number_id": req.PhoneNumberID}).Info("[TENANT] Number bound")
	return n, nil
}

func (s *tenantAdminService) ListBusinesses(ctx context.Context) ([]domainTenant.Business, error) {
	return s.repo.ListBusinesses(ctx)
}

// SetBusinessActive habilita o deshabilita un negocio; nunca se borra.
func (s *tenantAdminService) SetBusinessActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetBusinessActive(ctx, id, active); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"business_id": id, "active": active}).Info("[TENANT] Business status changed")
	return nil
}
