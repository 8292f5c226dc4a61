package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"go-crm-core/internal/config"
	"go-crm-core/internal/features/scoring"
	"go-crm-core/internal/identity"
	"go-crm-core/internal/models"
	"go-crm-core/internal/store"

	"go.uber.org/zap"
)

const (
	OpCreated = "created"
	OpUpdated = "updated"
)

// Event is a committed save of a workflow-enabled record.
type Event struct {
	Name   string
	Record models.Record
}

// EventName builds "<kind>.<op>", e.g. "deal.updated".
func EventName(kind models.Kind, op string) string {
	return fmt.Sprintf("%s.%s", kind, op)
}

// EventHandler receives events after the transaction that produced them
// has committed.
type EventHandler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

type (
	depthKey struct{}
	uowKey   struct{}
)

// Depth is the number of nested event dispatches ctx is running under.
func Depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// Dispatcher opens units of work and fires their events once committed.
type Dispatcher struct {
	store    store.Store
	scoring  scoring.ScoringService
	logger   *zap.Logger
	maxDepth int

	mu      sync.RWMutex
	handler EventHandler
}

func NewDispatcher(st store.Store, scoring scoring.ScoringService, cfg *config.Config, logger *zap.Logger) *Dispatcher {
	maxDepth := 3
	if cfg != nil && cfg.WorkflowMaxDepth > 0 {
		maxDepth = cfg.WorkflowMaxDepth
	}
	return &Dispatcher{
		store:    st,
		scoring:  scoring,
		logger:   logger.Named("lifecycle"),
		maxDepth: maxDepth,
	}
}

// SetHandler installs the receiver of committed events.
func (d *Dispatcher) SetHandler(h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

func (d *Dispatcher) Scoring() scoring.ScoringService { return d.scoring }

// Run executes fn inside one transaction. Events queued by fn are
// delivered only after commit; a failed fn delivers nothing. A Run nested
// inside another joins the outer unit of work.
func (d *Dispatcher) Run(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	if uow, ok := ctx.Value(uowKey{}).(*UnitOfWork); ok {
		return fn(ctx, uow)
	}

	actor := identity.ActorFromContext(ctx)
	var uow *UnitOfWork
	err := d.store.WithTx(ctx, func(txCtx context.Context, tx store.Tx) error {
		// the body may be retried by the driver, so start clean every time
		uow = newUnitOfWork(tx, d.scoring, actor, d.logger)
		return fn(context.WithValue(txCtx, uowKey{}, uow), uow)
	})
	if err != nil {
		return err
	}

	d.fire(ctx, uow.events)
	return nil
}

func (d *Dispatcher) fire(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	d.mu.RLock()
	h := d.handler
	d.mu.RUnlock()
	if h == nil {
		return
	}

	depth := Depth(ctx) + 1
	if depth > d.maxDepth {
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = e.Name
		}
		d.logger.Warn("workflow depth exceeded, dropping events",
			zap.Int("depth", depth),
			zap.Int("max_depth", d.maxDepth),
			zap.Strings("events", names))
		return
	}

	ctx = context.WithValue(ctx, depthKey{}, depth)
	for _, evt := range events {
		if err := h.HandleEvent(ctx, evt); err != nil {
			d.logger.Error("event handler failed",
				zap.String("event", evt.Name),
				zap.String("record_id", evt.Record.GetMeta().ID),
				zap.Error(err))
		}
	}
}
