package validations

import (
	"context"
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	domainCalendar "github.com/AzielCF/az-citas/domains/calendar"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

var apiVersionPattern = regexp.MustCompile(`^v\d+\.\d+$`)

func ValidateBookRequest(ctx context.Context, request domainCalendar.BookRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.EndUser, validation.Required),
		validation.Field(&request.Summary, validation.Required, validation.Length(1, 200)),
		validation.Field(&request.Start, validation.Required),
		validation.Field(&request.End, validation.Required, validation.By(func(interface{}) error {
			if !request.End.After(request.Start) {
				return errors.New("must be after start")
			}
			return nil
		})),
		validation.Field(&request.CustomerName, validation.Length(0, 120)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// ValidateWindow checks the new window of a reschedule.
func ValidateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgError.ValidationError("start and end are required")
	}
	if !end.After(start) {
		return pkgError.ValidationError("end: must be after start")
	}
	return nil
}

// AgeDigits reports whether the raw age can be stored (digits only).
func AgeDigits(raw string) bool {
	return raw != "" && is.Digit.Validate(raw) == nil
}
