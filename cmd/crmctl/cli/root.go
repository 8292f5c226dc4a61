// Package cli implements crmctl, the operator tool for maintenance jobs
// that run outside the API process.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go-crm-core/internal/config"
	"go-crm-core/internal/database"
	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/features/scheduler"
	"go-crm-core/internal/features/scoring"
	"go-crm-core/internal/features/workflow"
	"go-crm-core/internal/identity"
	"go-crm-core/internal/logger"
	"go-crm-core/internal/store"
	"go-crm-core/internal/store/backend"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "crmctl",
	Short:        "crmctl runs CRM maintenance jobs against the configured store",
	SilenceUsage: true,
}

// Execute is the entry point called from cmd/crmctl/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "store driver override: memory | mongo | postgres")

	rootCmd.AddCommand(seedWorkflowsCmd)
	rootCmd.AddCommand(rescoreLeadsCmd)
	rootCmd.AddCommand(sweepTasksCmd)
	rootCmd.AddCommand(migrateCmd)
}

// runtime is the slice of the API's object graph the commands need.
type runtime struct {
	config     *config.Config
	logger     *zap.Logger
	store      store.Store
	dispatcher *lifecycle.Dispatcher
	workflows  workflow.WorkflowService
	scheduler  scheduler.SchedulerService
	closers    []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.logger.Sync()
}

func bootstrap(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
		cfg.StoreDriver = driver
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := logger.NewBaseLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	rt := &runtime{config: cfg, logger: log}

	ctx := cmd.Context()
	var mdb *database.MongoDB
	var pg *sql.DB
	switch cfg.StoreDriver {
	case config.DriverMongo:
		if mdb, err = database.ConnectMongo(ctx, cfg); err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = mdb.Client.Disconnect(context.Background()) })
	case config.DriverPostgres:
		if pg, err = database.OpenPostgres(ctx, cfg); err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = pg.Close() })
	}

	if rt.store, err = backend.Open(ctx, cfg, mdb, pg, log); err != nil {
		rt.Close()
		return nil, err
	}

	rt.dispatcher = lifecycle.NewDispatcher(rt.store, scoring.NewScoringService(), cfg, log)
	repo := workflow.NewWorkflowRepository(rt.dispatcher)
	notifier := workflow.NewLogNotifier(log)
	rt.workflows = workflow.NewWorkflowService(repo, nil,
		workflow.NewActionExecutor(rt.dispatcher, notifier, log), rt.dispatcher, log)
	workflow.RegisterHandler(rt.dispatcher, rt.workflows)
	rt.scheduler = scheduler.NewSchedulerService(rt.dispatcher, notifier, cfg, log)
	return rt, nil
}

func systemContext(cmd *cobra.Command) context.Context {
	return identity.WithActor(cmd.Context(), identity.SystemActor)
}
