package conversion

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type ConversionController struct {
	Service ConversionService
}

func NewConversionController(service ConversionService) *ConversionController {
	return &ConversionController{
		Service: service,
	}
}

// Convert handles POST /api/conversions/:from/:id/:to. Only lead to client
// reads a body.
func (ctrl *ConversionController) Convert(c *fiber.Ctx) error {
	route, ok := ParseRoute(c.Params("from"), c.Params("to"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unsupported conversion"})
	}

	var in ClientInput
	if route == RouteLeadToClient && len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	result, err := ctrl.Service.Convert(c.UserContext(), route, c.Params("id"), in)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": UserMessage(err)})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"route":  route.String(),
		"result": result,
	})
}

// Routes handles GET /api/conversions.
func (ctrl *ConversionController) Routes(c *fiber.Ctx) error {
	out := make([]string, 0, len(Routes))
	for _, r := range Routes {
		out = append(out, r.String())
	}
	return c.JSON(out)
}

func statusFor(err error) int {
	var verr *ValidationError
	var perr *PreconditionError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.As(err, &perr):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
