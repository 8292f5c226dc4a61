package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-crm-core/internal/api"
	"go-crm-core/internal/config"
	"go-crm-core/internal/database"
	"go-crm-core/internal/features/conversion"
	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/features/scheduler"
	"go-crm-core/internal/features/scoring"
	"go-crm-core/internal/features/workflow"
	"go-crm-core/internal/identity"
	"go-crm-core/internal/logger"
	"go-crm-core/internal/middleware"
	"go-crm-core/internal/store/backend"
	"go-crm-core/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []api.Route, logger *zap.Logger) {
	logger.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		logger.Debug("Setting up route", zap.String("type", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// StartScheduler runs the periodic task sweep and lead rescoring.
func StartScheduler(lc fx.Lifecycle, svc scheduler.SchedulerService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.InitializeScheduler(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return svc.StopScheduler()
		},
	})
}

// SeedWorkflows installs the default rules that are not present yet.
func SeedWorkflows(lc fx.Lifecycle, svc workflow.WorkflowService, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(identity.WithActor(context.Background(), identity.SystemActor), 30*time.Second)
			defer cancel()
			if _, err := workflow.SeedDefaults(ctx, svc, logger); err != nil {
				logger.Error("Failed to seed default workflows", zap.Error(err))
			}
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,

			// connections; each returns nil unless its driver is configured
			database.NewMongoDB,
			database.NewPostgres,
			database.NewRedis,
			backend.NewStore,

			scoring.NewScoringService,
			lifecycle.NewDispatcher,

			workflow.NewWorkflowRepository,
			workflow.NewRuleCache,
			workflow.NewLogNotifier,
			workflow.NewActionExecutor,
			workflow.NewWorkflowService,
			conversion.NewTicketNumberer,
			conversion.NewConversionService,
			scheduler.NewSchedulerService,

			workflow.NewWorkflowController,
			conversion.NewConversionController,
			scheduler.NewSchedulerController,

			AsRoute(api.NewHealthApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(conversion.NewConversionApi),
			AsRoute(scheduler.NewSchedulerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			workflow.RegisterHandler,
			SeedWorkflows,
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartScheduler,
		),
	)

	app.Run()
}
