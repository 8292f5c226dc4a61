package conversion

import (
	"go-crm-core/internal/api"
	"go-crm-core/internal/config"
	"go-crm-core/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ConversionApi struct {
	controller *ConversionController
	config     *config.Config
}

func NewConversionApi(controller *ConversionController, config *config.Config) api.Route {
	return &ConversionApi{
		controller: controller,
		config:     config,
	}
}

func (h *ConversionApi) Setup(app *fiber.App) {
	group := app.Group("/api/conversions", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.Routes)
	group.Post("/:from/:id/:to", h.controller.Convert)
}
