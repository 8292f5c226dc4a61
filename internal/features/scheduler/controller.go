package scheduler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type SchedulerController struct {
	Service SchedulerService
}

func NewSchedulerController(service SchedulerService) *SchedulerController {
	return &SchedulerController{
		Service: service,
	}
}

// ListRuns godoc
// @Summary Last scheduled job runs
// @Tags scheduler
// @Produce json
// @Success 200 {array} JobRun
// @Router /api/scheduler/runs [get]
func (c *SchedulerController) ListRuns(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.Runs())
}

// RunJob godoc
// @Summary Run a scheduled job now
// @Tags scheduler
// @Produce json
// @Param job path string true "sweep_tasks or rescore_leads"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/scheduler/jobs/{job}/run [post]
func (c *SchedulerController) RunJob(ctx *fiber.Ctx) error {
	result, err := c.Service.RunJob(ctx.UserContext(), ctx.Params("job"))
	if errors.Is(err, ErrUnknownJob) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"job": ctx.Params("job"), "result": result})
}
