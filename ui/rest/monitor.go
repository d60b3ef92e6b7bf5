package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-citas/pkg/botmonitor"
	"github.com/AzielCF/az-citas/pkg/utils"
)

// InitRestMonitor expone los contadores y eventos recientes del pipeline.
func InitRestMonitor(app fiber.Router, monitor *botmonitor.Monitor) {
	app.Get("/api/monitor/stats", func(c *fiber.Ctx) error {
		return c.JSON(utils.ResponseData{
			Status:  fiber.StatusOK,
			Code:    "SUCCESS",
			Message: "Pipeline stats",
			Results: monitor.GetStats(),
		})
	})
}
