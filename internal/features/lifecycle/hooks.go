package lifecycle

import (
	"context"
	"errors"
	"slices"
	"time"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"go.uber.org/zap"
)

// beforePersist refreshes the fields derived from rec itself or its
// children. stored is nil on create.
func (u *UnitOfWork) beforePersist(ctx context.Context, rec models.Record, stored models.Record) error {
	switch r := rec.(type) {
	case *models.Lead:
		engagements, err := u.leadEngagements(ctx, r.ID)
		if err != nil {
			return err
		}
		u.scoring.ApplyLeadScore(r, engagements)
	case *models.Task:
		var prev *models.Task
		if stored != nil {
			prev = stored.(*models.Task)
		}
		if prev == nil || taskInputsChanged(prev, r) {
			u.scoring.ApplyTaskScore(r)
		}
		u.scoring.ApplyTaskSuggestions(r)
	case *models.Project:
		tasks, err := u.projectTasks(ctx, r.ID)
		if err != nil {
			return err
		}
		u.scoring.ApplyProjectProgress(r, tasks)
	}
	return nil
}

// afterPersist propagates a write to the records whose derived fields
// depend on it. Those saves are quiet.
func (u *UnitOfWork) afterPersist(ctx context.Context, rec models.Record, stored models.Record) error {
	switch r := rec.(type) {
	case *models.Engagement:
		leads := []string{}
		if r.ParentType == models.KindLead {
			leads = append(leads, r.ParentID)
		}
		if prev, ok := stored.(*models.Engagement); ok && prev.ParentType == models.KindLead && !slices.Contains(leads, prev.ParentID) {
			leads = append(leads, prev.ParentID)
		}
		for _, id := range leads {
			if err := u.rescoreLead(ctx, id); err != nil {
				return err
			}
		}
	case *models.Task:
		ids := projectIDs(r)
		if prev, ok := stored.(*models.Task); ok {
			for _, id := range projectIDs(prev) {
				if !slices.Contains(ids, id) {
					ids = append(ids, id)
				}
			}
		}
		for _, id := range ids {
			if err := u.refreshProject(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *UnitOfWork) rescoreLead(ctx context.Context, id string) error {
	rec, err := u.Load(ctx, models.KindLead, id)
	if errors.Is(err, store.ErrNotFound) {
		u.logger.Debug("skip rescore of missing lead", zap.String("lead_id", id))
		return nil
	}
	if err != nil {
		return err
	}
	return u.UpdateQuietly(ctx, rec)
}

func (u *UnitOfWork) refreshProject(ctx context.Context, id string) error {
	rec, err := u.Load(ctx, models.KindProject, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return u.UpdateQuietly(ctx, rec)
}

func (u *UnitOfWork) leadEngagements(ctx context.Context, leadID string) ([]*models.Engagement, error) {
	if leadID == "" {
		return nil, nil
	}
	recs, err := u.Children(ctx, models.KindEngagement, models.Ref{Kind: models.KindLead, ID: leadID})
	if err != nil {
		return nil, err
	}
	out := make([]*models.Engagement, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.(*models.Engagement))
	}
	return out, nil
}

// projectTasks returns the tasks counted towards a project's progress:
// those carrying its project_id plus those parented on it.
func (u *UnitOfWork) projectTasks(ctx context.Context, projectID string) ([]*models.Task, error) {
	if projectID == "" {
		return nil, nil
	}
	byField, err := u.List(ctx, models.KindTask, condition.Eq("project_id", projectID))
	if err != nil {
		return nil, err
	}
	byParent, err := u.Children(ctx, models.KindTask, models.Ref{Kind: models.KindProject, ID: projectID})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []*models.Task
	for _, rec := range append(byField, byParent...) {
		if seen[rec.GetMeta().ID] {
			continue
		}
		seen[rec.GetMeta().ID] = true
		out = append(out, rec.(*models.Task))
	}
	return out, nil
}

func projectIDs(t *models.Task) []string {
	var ids []string
	if t.ProjectID != "" {
		ids = append(ids, t.ProjectID)
	}
	if t.ParentType == models.KindProject && t.ParentID != "" && t.ParentID != t.ProjectID {
		ids = append(ids, t.ParentID)
	}
	return ids
}

// taskInputsChanged reports whether a field feeding the priority score moved.
func taskInputsChanged(prev, next *models.Task) bool {
	return prev.Priority != next.Priority ||
		prev.Status != next.Status ||
		!sameTime(prev.DueDate, next.DueDate) ||
		!sameInt(prev.SLAMinutes, next.SLAMinutes)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
