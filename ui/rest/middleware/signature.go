package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-citas/pkg/error"
	"github.com/AzielCF/az-citas/pkg/utils"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
)

// VerifySignature valida la firma HMAC-SHA256 que Meta envía con cada webhook.
// Sin secreto configurado, o en modo mock, la verificación se omite.
func VerifySignature(appSecret string, skip bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skip || appSecret == "" {
			return c.Next()
		}

		header := c.Get(SignatureHeader)
		if !ValidSignature(appSecret, c.Body(), header) {
			logrus.WithField("ip", c.IP()).Warn("[WEBHOOK] Invalid signature")
			authErr := pkgError.AuthError("invalid webhook signature")
			return c.Status(authErr.StatusCode()).JSON(utils.ResponseData{
				Status:  authErr.StatusCode(),
				Code:    authErr.ErrCode(),
				Message: authErr.Error(),
			})
		}
		return c.Next()
	}
}

// ValidSignature compara en tiempo constante el header "sha256=<hex>" con el HMAC del body.
func ValidSignature(appSecret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign produce el valor del header para un body; lo usan el comando replay y los tests.
func Sign(appSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
