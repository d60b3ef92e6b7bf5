package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainWebhook "github.com/AzielCF/az-citas/domains/webhook"
	pkgError "github.com/AzielCF/az-citas/pkg/error"
)

func ValidateInbound(ctx context.Context, in domainWebhook.InboundMessage) error {
	err := validation.ValidateStructWithContext(ctx, &in,
		validation.Field(&in.From, validation.Required, validation.Length(5, 20)),
		validation.Field(&in.Text, validation.Required, validation.Length(1, 4096)),
		validation.Field(&in.RoutingKey, validation.Length(0, 64)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
