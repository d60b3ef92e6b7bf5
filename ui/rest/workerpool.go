package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-citas/pkg/msgworker"
	"github.com/AzielCF/az-citas/pkg/utils"
)

// InitRestWorkerPool expone las métricas del pool de turnos asíncronos.
func InitRestWorkerPool(app fiber.Router, pool *msgworker.Pool) {
	app.Get("/api/worker-pool/stats", func(c *fiber.Ctx) error {
		if pool == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
				Status:  fiber.StatusServiceUnavailable,
				Code:    "SERVICE_UNAVAILABLE",
				Message: "Worker pool not enabled",
			})
		}
		return c.JSON(utils.ResponseData{
			Status:  fiber.StatusOK,
			Code:    "SUCCESS",
			Message: "Worker pool stats",
			Results: pool.GetStats(),
		})
	})
}
