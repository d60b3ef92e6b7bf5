package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-citas/domains/health"
	"github.com/AzielCF/az-citas/pkg/utils"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}

	app.Get("/health", handler.Live)
	app.Get("/health/ready", handler.Ready)

	return handler
}

func (h *Health) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready corre las sondas de base de datos y valkey.
func (h *Health) Ready(c *fiber.Ctx) error {
	records, healthy := h.Service.CheckAll(c.UserContext())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  fiber.StatusServiceUnavailable,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "One or more dependencies are down",
			Results: records,
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: "All dependencies are healthy",
		Results: records,
	})
}
