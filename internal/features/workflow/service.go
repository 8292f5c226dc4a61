package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/models"
	"go-crm-core/pkg/condition"

	"github.com/d5/tengo/v2"
	"go.uber.org/zap"
)

type WorkflowService interface {
	CreateRule(ctx context.Context, rule *models.Workflow) error
	GetRule(ctx context.Context, id string) (*models.Workflow, error)
	ListRules(ctx context.Context, eventType string) ([]*models.Workflow, error)
	UpdateRule(ctx context.Context, rule *models.Workflow) error
	DeleteRule(ctx context.Context, id string) error
	ValidateRule(rule *models.Workflow) error

	// Dispatch evaluates every active rule for eventType against rec and
	// runs the actions of those that match.
	Dispatch(ctx context.Context, eventType string, rec models.Record) (*DispatchReport, error)
	HandleEvent(ctx context.Context, evt lifecycle.Event) error
}

type WorkflowServiceImpl struct {
	repo       WorkflowRepository
	rules      RuleSource
	cache      *CachedRuleSource
	executor   ActionExecutor
	dispatcher *lifecycle.Dispatcher
	logger     *zap.Logger
}

// NewWorkflowService wires the engine. cache may be nil, in which case
// rules are read straight from the repository.
func NewWorkflowService(repo WorkflowRepository, cache *CachedRuleSource, executor ActionExecutor, dispatcher *lifecycle.Dispatcher, logger *zap.Logger) WorkflowService {
	s := &WorkflowServiceImpl{
		repo:       repo,
		rules:      repo,
		executor:   executor,
		dispatcher: dispatcher,
		logger:     logger.Named("workflow"),
	}
	if cache != nil {
		s.cache = cache
		s.rules = cache
	}
	return s
}

func (s *WorkflowServiceImpl) Dispatch(ctx context.Context, eventType string, rec models.Record) (*DispatchReport, error) {
	report := &DispatchReport{EventType: eventType, RecordID: rec.GetMeta().ID}
	rules, err := s.rules.ActiveRules(ctx, eventType)
	if err != nil {
		return report, fmt.Errorf("load rules for %s: %w", eventType, err)
	}

	target := models.RefOf(rec)
	for _, rule := range rules {
		outcome := RuleOutcome{RuleID: rule.ID, RuleName: rule.Name}

		matched, err := condition.Match(rule.Conditions, rec)
		if err != nil {
			outcome.Anomaly = err.Error()
			conditionAnomalies.WithLabelValues(eventType).Inc()
			s.logger.Warn("rule condition anomaly",
				zap.String("rule", rule.Name),
				zap.String("event", eventType),
				zap.Stringer("record", target),
				zap.Error(err))
		}
		outcome.Matched = matched
		rulesEvaluated.WithLabelValues(eventType, strconv.FormatBool(matched)).Inc()

		if matched {
			outcome.Actions = s.executor.ExecuteActions(ctx, rule.Actions, target)
			if changed(outcome.Actions) {
				rec = s.reload(ctx, rec)
			}
		}
		report.Rules = append(report.Rules, outcome)
	}

	s.logger.Debug("dispatched event",
		zap.String("event", eventType),
		zap.Stringer("record", target),
		zap.Int("rules", len(rules)),
		zap.Int("matched", report.Matched()),
		zap.Int("depth", lifecycle.Depth(ctx)))
	return report, report.Err()
}

func (s *WorkflowServiceImpl) HandleEvent(ctx context.Context, evt lifecycle.Event) error {
	_, err := s.Dispatch(ctx, evt.Name, evt.Record)
	return err
}

// reload fetches the current state of rec so later rules see what earlier
// ones wrote. On failure the previous snapshot is kept.
func (s *WorkflowServiceImpl) reload(ctx context.Context, rec models.Record) models.Record {
	var fresh models.Record
	err := s.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		var err error
		fresh, err = uow.Load(ctx, rec.Kind(), rec.GetMeta().ID)
		return err
	})
	if err != nil {
		s.logger.Warn("reload after actions failed", zap.Stringer("record", models.RefOf(rec)), zap.Error(err))
		return rec
	}
	return fresh
}

func changed(outcomes []ActionOutcome) bool {
	for _, o := range outcomes {
		if o.err == nil && !o.Skipped {
			return true
		}
	}
	return false
}

func (s *WorkflowServiceImpl) CreateRule(ctx context.Context, rule *models.Workflow) error {
	if err := s.ValidateRule(rule); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return err
	}
	s.invalidate(ctx, rule.EventType)
	return nil
}

func (s *WorkflowServiceImpl) GetRule(ctx context.Context, id string) (*models.Workflow, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *WorkflowServiceImpl) ListRules(ctx context.Context, eventType string) ([]*models.Workflow, error) {
	return s.repo.List(ctx, eventType)
}

func (s *WorkflowServiceImpl) UpdateRule(ctx context.Context, rule *models.Workflow) error {
	if err := s.ValidateRule(rule); err != nil {
		return err
	}
	old, err := s.repo.GetByID(ctx, rule.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, rule); err != nil {
		return err
	}
	s.invalidate(ctx, old.EventType, rule.EventType)
	return nil
}

func (s *WorkflowServiceImpl) DeleteRule(ctx context.Context, id string) error {
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, old.EventType)
	return nil
}

func (s *WorkflowServiceImpl) invalidate(ctx context.Context, eventTypes ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventTypes...); err != nil {
		s.logger.Warn("rule cache invalidation failed", zap.Strings("events", eventTypes), zap.Error(err))
	}
}

// ValidateRule rejects rules the engine could never run: a missing event
// type, unknown operators or action types, and malformed action params.
func (s *WorkflowServiceImpl) ValidateRule(rule *models.Workflow) error {
	var errs []error
	if strings.TrimSpace(rule.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !validEventType(rule.EventType) {
		errs = append(errs, fmt.Errorf("event_type %q must look like <kind>.created or <kind>.updated", rule.EventType))
	}
	if err := condition.Validate(rule.Conditions); err != nil {
		errs = append(errs, err)
	}
	for i, action := range rule.Actions {
		if err := validateAction(action); err != nil {
			errs = append(errs, fmt.Errorf("action %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRule, errors.Join(errs...))
	}
	return nil
}

func validEventType(eventType string) bool {
	kind, op, ok := strings.Cut(eventType, ".")
	if !ok {
		return false
	}
	return models.Kind(kind).Valid() && (op == lifecycle.OpCreated || op == lifecycle.OpUpdated)
}

func validateAction(action models.Action) error {
	if !knownActions[ActionType(action.Type)] {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
	p := params(action.Params)
	switch ActionType(action.Type) {
	case ActionUpdateField:
		if p.str("field", "") == "" {
			return errors.New("update_field requires a field")
		}
	case ActionRunScript:
		source := p.str("script", "")
		if source == "" {
			return errors.New("run_script requires a script")
		}
		script := tengo.NewScript([]byte(source))
		_ = script.Add("kind", "")
		_ = script.Add("record", map[string]interface{}{})
		_ = script.Add("updates", map[string]interface{}{})
		if _, err := script.Compile(); err != nil {
			return fmt.Errorf("run_script does not compile: %w", err)
		}
	}
	return nil
}
