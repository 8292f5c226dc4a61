package workflow

import (
	"go-crm-core/internal/api"
	"go-crm-core/internal/config"
	"go-crm-core/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WorkflowApi struct {
	controller *WorkflowController
	config     *config.Config
}

func NewWorkflowApi(controller *WorkflowController, config *config.Config) api.Route {
	return &WorkflowApi{
		controller: controller,
		config:     config,
	}
}

func (h *WorkflowApi) Setup(app *fiber.App) {
	group := app.Group("/api/workflows", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListRules)
	group.Post("/", h.controller.CreateRule)
	group.Post("/validate", h.controller.ValidateRule)
	group.Get("/:id", h.controller.GetRule)
	group.Put("/:id", h.controller.UpdateRule)
	group.Delete("/:id", h.controller.DeleteRule)
}
