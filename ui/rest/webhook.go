package rest

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	domainWebhook "github.com/AzielCF/az-citas/domains/webhook"
	"github.com/AzielCF/az-citas/pkg/msgworker"
	"github.com/AzielCF/az-citas/pkg/utils"
	"github.com/AzielCF/az-citas/ui/rest/middleware"
)

type WebhookOptions struct {
	VerifyToken string
	AppSecret   string
	MockMode    bool
	// Pool no nil activa el modo asíncrono: se responde tras el dedup y el turno corre en un worker.
	Pool *msgworker.Pool
}

type Webhook struct {
	Processor domainWebhook.IProcessor
	opts      WebhookOptions
}

func InitRestWebhook(app fiber.Router, processor domainWebhook.IProcessor, opts WebhookOptions) Webhook {
	handler := Webhook{Processor: processor, opts: opts}

	app.Get("/webhook", handler.Verify)
	app.Post("/webhook", middleware.VerifySignature(opts.AppSecret, opts.MockMode), handler.Receive)

	return handler
}

// Verify responde el handshake de suscripción de Meta.
func (h *Webhook) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" || challenge == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
			Status:  fiber.StatusBadRequest,
			Code:    "BAD_REQUEST",
			Message: "Missing parameters",
		})
	}
	if mode != "subscribe" || h.opts.VerifyToken == "" || token != h.opts.VerifyToken {
		logrus.WithField("mode", mode).Warn("[WEBHOOK] Verification failed")
		return c.Status(fiber.StatusForbidden).JSON(utils.ResponseData{
			Status:  fiber.StatusForbidden,
			Code:    "AUTHENTICATION_ERROR",
			Message: "Verification failed",
		})
	}

	logrus.Info("[WEBHOOK] Verified")
	return c.Status(fiber.StatusOK).SendString(challenge)
}

func (h *Webhook) Receive(c *fiber.Ctx) error {
	var payload domainWebhook.Payload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		logrus.WithError(err).Warn("[WEBHOOK] Invalid JSON payload")
		return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
			Status:  fiber.StatusBadRequest,
			Code:    "BAD_REQUEST",
			Message: "Invalid JSON provided",
		})
	}

	if payload.IsStatusUpdate() {
		logrus.Debug("[WEBHOOK] Status update received")
		return c.JSON(fiber.Map{"status": "ok"})
	}

	in, ok := payload.Inbound()
	if !ok {
		return c.JSON(fiber.Map{"status": "ok"})
	}

	if h.Processor.Admit(c.UserContext(), in) {
		logrus.WithField("message_id", in.MessageID).Info("[WEBHOOK] Duplicate message ignored")
		return c.JSON(fiber.Map{"status": "ok", "duplicate": true})
	}

	if h.opts.Pool != nil {
		job := msgworker.Job{
			TenantKey: in.RoutingKey,
			EndUser:   in.From,
			Handler: func(ctx context.Context) error {
				h.Processor.Process(ctx, in)
				return nil
			},
		}
		if h.opts.Pool.TryDispatch(job) {
			return c.JSON(fiber.Map{"status": "ok", "queued": true})
		}
		logrus.WithField("message_id", in.MessageID).Warn("[WEBHOOK] Worker queue full, processing inline")
	}

	res := h.Processor.Process(c.UserContext(), in)
	return c.JSON(fiber.Map{"status": "ok", "delivered": res.Delivered})
}
