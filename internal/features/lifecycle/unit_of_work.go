package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go-crm-core/internal/features/scoring"
	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UnitOfWork is the only write path for records. It wraps one store
// transaction, keeps derived fields current and collects the workflow
// events to fire once the transaction commits.
type UnitOfWork struct {
	tx      store.Tx
	scoring scoring.ScoringService
	actor   string
	logger  *zap.Logger
	events  []Event
}

func newUnitOfWork(tx store.Tx, scoring scoring.ScoringService, actor string, logger *zap.Logger) *UnitOfWork {
	return &UnitOfWork{tx: tx, scoring: scoring, actor: actor, logger: logger}
}

// Actor is the user id stamped on writes.
func (u *UnitOfWork) Actor() string { return u.actor }

// Events returns the events queued so far.
func (u *UnitOfWork) Events() []Event { return u.events }

// Create assigns identity and audit columns, computes derived fields and
// inserts rec.
func (u *UnitOfWork) Create(ctx context.Context, rec models.Record) error {
	meta := rec.GetMeta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := u.scoring.Now()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	if meta.CreatedBy == "" {
		meta.CreatedBy = u.actor
	}
	meta.UpdatedBy = u.actor

	if child, ok := rec.(models.Child); ok && rec.Kind() != models.KindTask && child.GetParent().IsZero() {
		return fmt.Errorf("create %s: %w", rec.Kind(), models.ErrMissingParent)
	}

	if err := u.beforePersist(ctx, rec, nil); err != nil {
		return err
	}
	if err := u.tx.Insert(ctx, rec); err != nil {
		return err
	}
	if err := u.afterPersist(ctx, rec, nil); err != nil {
		return err
	}
	u.queue(rec, OpCreated)
	return nil
}

// Update persists rec and queues an "<kind>.updated" event. A save that
// changes nothing is skipped entirely.
func (u *UnitOfWork) Update(ctx context.Context, rec models.Record) error {
	return u.update(ctx, rec, false)
}

// UpdateQuietly persists rec without queueing workflow events.
func (u *UnitOfWork) UpdateQuietly(ctx context.Context, rec models.Record) error {
	return u.update(ctx, rec, true)
}

func (u *UnitOfWork) update(ctx context.Context, rec models.Record, quiet bool) error {
	meta := rec.GetMeta()
	stored, err := u.Load(ctx, rec.Kind(), meta.ID)
	if err != nil {
		return err
	}

	if err := u.beforePersist(ctx, rec, stored); err != nil {
		return err
	}
	same, err := sameContent(stored, rec)
	if err != nil {
		return err
	}
	if same {
		return nil
	}

	meta.UpdatedAt = u.scoring.Now()
	meta.UpdatedBy = u.actor
	if err := u.tx.Update(ctx, rec); err != nil {
		return err
	}
	if err := u.afterPersist(ctx, rec, stored); err != nil {
		return err
	}
	if !quiet {
		u.queue(rec, OpUpdated)
	}
	return nil
}

// Delete soft-deletes rec. Deletes never fire workflow events.
func (u *UnitOfWork) Delete(ctx context.Context, rec models.Record) error {
	meta := rec.GetMeta()
	now := u.scoring.Now()
	if err := u.tx.SoftDelete(ctx, rec.Kind(), meta.ID, now, u.actor); err != nil {
		return err
	}
	meta.DeletedAt = &now
	meta.DeletedBy = u.actor
	meta.Version++
	return u.afterPersist(ctx, rec, nil)
}

// Load returns a live record; soft-deleted rows are reported as not found.
func (u *UnitOfWork) Load(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	rec, err := u.tx.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if rec.GetMeta().Deleted() {
		return nil, fmt.Errorf("%s/%s is deleted: %w", kind, id, store.ErrNotFound)
	}
	return rec, nil
}

// LoadAny returns the record even when it has been soft-deleted.
func (u *UnitOfWork) LoadAny(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	return u.tx.Get(ctx, kind, id)
}

func (u *UnitOfWork) List(ctx context.Context, kind models.Kind, conds ...models.Condition) ([]models.Record, error) {
	return u.tx.List(ctx, kind, conds...)
}

// Children lists the live records of kind attached to parent.
func (u *UnitOfWork) Children(ctx context.Context, kind models.Kind, parent models.Ref) ([]models.Record, error) {
	return u.tx.List(ctx, kind, condition.ChildOf(parent)...)
}

// Reassign moves children of kind from one parent to another and refreshes
// whatever derived state depends on them.
func (u *UnitOfWork) Reassign(ctx context.Context, kind models.Kind, from, to models.Ref) (int64, error) {
	var affected []models.Record
	if kind == models.KindTask {
		var err error
		if affected, err = u.Children(ctx, kind, from); err != nil {
			return 0, err
		}
	}

	n, err := u.tx.Reassign(ctx, kind, from, to, u.scoring.Now())
	if err != nil || n == 0 {
		return n, err
	}

	switch kind {
	case models.KindEngagement:
		for _, ref := range []models.Ref{from, to} {
			if ref.Kind == models.KindLead {
				if err := u.rescoreLead(ctx, ref.ID); err != nil {
					return n, err
				}
			}
		}
	case models.KindTask:
		projects := map[string]bool{}
		for _, rec := range affected {
			for _, id := range projectIDs(rec.(*models.Task)) {
				projects[id] = true
			}
		}
		if to.Kind == models.KindProject {
			projects[to.ID] = true
		}
		for id := range projects {
			if err := u.refreshProject(ctx, id); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (u *UnitOfWork) queue(rec models.Record, op string) {
	if !models.Supports(rec.Kind(), models.CapWorkflowEvents) {
		return
	}
	snapshot, err := models.Clone(rec)
	if err != nil {
		u.logger.Warn("snapshot for workflow event failed", zap.String("kind", rec.Kind().String()), zap.Error(err))
		return
	}
	u.events = append(u.events, Event{Name: EventName(rec.Kind(), op), Record: snapshot})
}

// sameContent reports whether next would persist exactly what is stored,
// ignoring the audit columns an update rewrites anyway.
func sameContent(stored, next models.Record) (bool, error) {
	sm := stored.GetMeta()
	nm := next.GetMeta()
	sm.UpdatedAt, sm.UpdatedBy = nm.UpdatedAt, nm.UpdatedBy

	a, err := json.Marshal(stored)
	if err != nil {
		return false, err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}
