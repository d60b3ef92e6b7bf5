package validations

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

func ValidateCreateBusiness(ctx context.Context, request domainTenant.CreateBusinessRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&request.BusinessType, validation.Length(0, 40)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return ValidateSettings(request.Settings)
}

func ValidateBindNumber(ctx context.Context, request domainTenant.BindNumberRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.BusinessID, validation.Required, is.UUID),
		validation.Field(&request.PhoneNumberID, validation.Required, is.Digit),
		validation.Field(&request.PhoneNumber, validation.Length(0, 20)),
		validation.Field(&request.APIVersion, validation.Match(apiVersionPattern)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// ValidateSettings revisa el documento de configuración del negocio.
func ValidateSettings(s domainTenant.Settings) error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Timezone, validation.By(validTimezone)),
		validation.Field(&s.BusinessHours, validation.By(validBusinessHours)),
		validation.Field(&s.Services, validation.By(validServices)),
		validation.Field(&s.Appointment, validation.By(func(value interface{}) error {
			a, _ := value.(domainTenant.AppointmentSettings)
			if a.MaxConcurrent < 0 {
				return errors.New("max_concurrent must not be negative")
			}
			return nil
		})),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func validTimezone(value interface{}) error {
	tz, _ := value.(string)
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	return nil
}

func validBusinessHours(value interface{}) error {
	hours, _ := value.(map[string]domainTenant.DayHours)
	known := make(map[string]bool, 7)
	for _, d := range domainTenant.Weekdays {
		known[domainTenant.WeekdayKey(d)] = true
	}
	for day, h := range hours {
		if !known[day] {
			return fmt.Errorf("unknown day %q", day)
		}
		if h.Closed() {
			continue
		}
		open, err := domainTenant.ParseClock(h.Open)
		if err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
		closing, err := domainTenant.ParseClock(h.Close)
		if err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
		if closing <= open {
			return fmt.Errorf("%s: close must be after open", day)
		}
	}
	return nil
}

func validServices(value interface{}) error {
	services, _ := value.([]domainTenant.Service)
	for i, svc := range services {
		if svc.Name == "" {
			return fmt.Errorf("service %d has no name", i)
		}
		if svc.Price < 0 || svc.Duration < 0 {
			return fmt.Errorf("service %q has a negative price or duration", svc.Name)
		}
	}
	return nil
}
