package workflow

import (
	"errors"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"

	"github.com/gofiber/fiber/v2"
)

type WorkflowController struct {
	Service WorkflowService
}

func NewWorkflowController(service WorkflowService) *WorkflowController {
	return &WorkflowController{
		Service: service,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRule):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrRuleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// CreateRule handles POST /api/workflows.
func (ctrl *WorkflowController) CreateRule(c *fiber.Ctx) error {
	var rule models.Workflow
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	rule.ID = ""

	if err := ctrl.Service.CreateRule(c.UserContext(), &rule); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// GetRule handles GET /api/workflows/:id.
func (ctrl *WorkflowController) GetRule(c *fiber.Ctx) error {
	rule, err := ctrl.Service.GetRule(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rule)
}

// ListRules handles GET /api/workflows, optionally filtered by ?event_type=.
func (ctrl *WorkflowController) ListRules(c *fiber.Ctx) error {
	rules, err := ctrl.Service.ListRules(c.UserContext(), c.Query("event_type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rules)
}

// UpdateRule handles PUT /api/workflows/:id. The body must carry the
// version it was read at.
func (ctrl *WorkflowController) UpdateRule(c *fiber.Ctx) error {
	var rule models.Workflow
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	rule.ID = c.Params("id")

	current, err := ctrl.Service.GetRule(c.UserContext(), rule.ID)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	// audit columns are not client-writable
	rule.CreatedAt, rule.CreatedBy, rule.OwnerID = current.CreatedAt, current.CreatedBy, current.OwnerID
	if rule.Version == 0 {
		rule.Version = current.Version
	}

	if err := ctrl.Service.UpdateRule(c.UserContext(), &rule); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rule)
}

// DeleteRule handles DELETE /api/workflows/:id.
func (ctrl *WorkflowController) DeleteRule(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteRule(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateRule handles POST /api/workflows/validate without saving.
func (ctrl *WorkflowController) ValidateRule(c *fiber.Ctx) error {
	var rule models.Workflow
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Service.ValidateRule(&rule); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"valid": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"valid": true})
}
