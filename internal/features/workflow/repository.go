package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"
)

// RuleSource yields the active rules for an event, highest priority first
// and ties in creation order.
type RuleSource interface {
	ActiveRules(ctx context.Context, eventType string) ([]*models.Workflow, error)
}

type WorkflowRepository interface {
	RuleSource
	Create(ctx context.Context, rule *models.Workflow) error
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	List(ctx context.Context, eventType string) ([]*models.Workflow, error)
	Update(ctx context.Context, rule *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

type WorkflowRepositoryImpl struct {
	dispatcher *lifecycle.Dispatcher
}

func NewWorkflowRepository(dispatcher *lifecycle.Dispatcher) WorkflowRepository {
	return &WorkflowRepositoryImpl{dispatcher: dispatcher}
}

func (r *WorkflowRepositoryImpl) Create(ctx context.Context, rule *models.Workflow) error {
	return r.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		return uow.Create(ctx, rule)
	})
}

func (r *WorkflowRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	var rule *models.Workflow
	err := r.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		rec, err := uow.Load(ctx, models.KindWorkflow, id)
		if err != nil {
			return err
		}
		rule = rec.(*models.Workflow)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrRuleNotFound)
	}
	return rule, err
}

func (r *WorkflowRepositoryImpl) List(ctx context.Context, eventType string) ([]*models.Workflow, error) {
	var conds []models.Condition
	if eventType != "" {
		conds = append(conds, condition.Eq("event_type", eventType))
	}
	return r.list(ctx, conds...)
}

func (r *WorkflowRepositoryImpl) ActiveRules(ctx context.Context, eventType string) ([]*models.Workflow, error) {
	rules, err := r.list(ctx, condition.Eq("event_type", eventType), condition.Eq("is_active", true))
	if err != nil {
		return nil, err
	}
	SortByPriority(rules)
	return rules, nil
}

func (r *WorkflowRepositoryImpl) Update(ctx context.Context, rule *models.Workflow) error {
	err := r.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		return uow.Update(ctx, rule)
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", rule.ID, ErrRuleNotFound)
	}
	return err
}

func (r *WorkflowRepositoryImpl) Delete(ctx context.Context, id string) error {
	err := r.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		rec, err := uow.Load(ctx, models.KindWorkflow, id)
		if err != nil {
			return err
		}
		return uow.Delete(ctx, rec)
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", id, ErrRuleNotFound)
	}
	return err
}

func (r *WorkflowRepositoryImpl) list(ctx context.Context, conds ...models.Condition) ([]*models.Workflow, error) {
	var rules []*models.Workflow
	err := r.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		recs, err := uow.List(ctx, models.KindWorkflow, conds...)
		if err != nil {
			return err
		}
		rules = make([]*models.Workflow, 0, len(recs))
		for _, rec := range recs {
			rules = append(rules, rec.(*models.Workflow))
		}
		return nil
	})
	return rules, err
}

// SortByPriority orders rules by priority descending. The sort is stable so
// rules of equal priority keep their creation order.
func SortByPriority(rules []*models.Workflow) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
}
