package scheduler

import (
	"go-crm-core/internal/api"
	"go-crm-core/internal/config"
	"go-crm-core/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SchedulerApi struct {
	controller *SchedulerController
	config     *config.Config
}

func NewSchedulerApi(controller *SchedulerController, config *config.Config) api.Route {
	return &SchedulerApi{
		controller: controller,
		config:     config,
	}
}

func (h *SchedulerApi) Setup(app *fiber.App) {
	group := app.Group("/api/scheduler", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/runs", h.controller.ListRuns)
	group.Post("/jobs/:job/run", h.controller.RunJob)
}
