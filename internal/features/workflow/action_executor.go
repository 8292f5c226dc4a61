package workflow

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/models"

	"github.com/d5/tengo/v2"
	"go.uber.org/zap"
)

const scriptTimeout = 2 * time.Second

// ActionExecutor runs the actions of a matched rule against its target
// record. Every action runs in its own unit of work.
type ActionExecutor interface {
	ExecuteActions(ctx context.Context, actions []models.Action, target models.Ref) []ActionOutcome
	ExecuteAction(ctx context.Context, action models.Action, target models.Ref) (skipped bool, err error)
}

type ActionExecutorImpl struct {
	dispatcher *lifecycle.Dispatcher
	notifier   Notifier
	logger     *zap.Logger
}

func NewActionExecutor(dispatcher *lifecycle.Dispatcher, notifier Notifier, logger *zap.Logger) ActionExecutor {
	return &ActionExecutorImpl{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger.Named("workflow.actions"),
	}
}

func (e *ActionExecutorImpl) ExecuteActions(ctx context.Context, actions []models.Action, target models.Ref) []ActionOutcome {
	outcomes := make([]ActionOutcome, 0, len(actions))
	for i, action := range actions {
		skipped, err := e.ExecuteAction(ctx, action, target)
		outcome := ActionOutcome{Type: action.Type, Skipped: skipped, err: err}
		switch {
		case err != nil:
			outcome.Error = err.Error()
			actionsExecuted.WithLabelValues(action.Type, "failed").Inc()
			e.logger.Error("workflow action failed",
				zap.Int("index", i),
				zap.String("type", action.Type),
				zap.Stringer("record", target),
				zap.Error(err))
		case skipped:
			actionsExecuted.WithLabelValues(action.Type, "skipped").Inc()
		default:
			actionsExecuted.WithLabelValues(action.Type, "succeeded").Inc()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (e *ActionExecutorImpl) ExecuteAction(ctx context.Context, action models.Action, target models.Ref) (bool, error) {
	if !knownActions[ActionType(action.Type)] {
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	skipped := false
	err := e.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		rec, err := uow.Load(ctx, target.Kind, target.ID)
		if err != nil {
			return err
		}
		p := params(action.Params)

		switch ActionType(action.Type) {
		case ActionUpdateField:
			return e.updateField(ctx, uow, rec, p)
		case ActionCreateTask:
			skipped, err = e.createTask(ctx, uow, rec, p)
		case ActionSendNotification:
			err = e.sendNotification(ctx, rec, p)
		case ActionLogCommunication:
			skipped, err = e.logCommunication(ctx, uow, rec, p)
		case ActionCreateActivity:
			skipped, err = e.createActivity(ctx, uow, rec, p)
		case ActionRunScript:
			err = e.runScript(ctx, uow, rec, p)
		}
		return err
	})
	return skipped, err
}

func (e *ActionExecutorImpl) updateField(ctx context.Context, uow *lifecycle.UnitOfWork, rec models.Record, p params) error {
	field := p.str("field", "")
	if field == "" {
		return fmt.Errorf("field name is required for update_field action")
	}
	if err := rec.SetField(field, models.ValueOf(p["value"])); err != nil {
		return err
	}
	return uow.Update(ctx, rec)
}

func (e *ActionExecutorImpl) createTask(ctx context.Context, uow *lifecycle.UnitOfWork, rec models.Record, p params) (bool, error) {
	if !models.Supports(rec.Kind(), models.CapTasks) {
		return true, nil
	}
	due := e.dispatcher.Scoring().Now().AddDate(0, 0, p.integer("days_due", 1))
	task := &models.Task{
		Title:       render(p.str("title", "Auto-generated Task"), rec),
		Description: render(p.str("description", ""), rec),
		DueDate:     &due,
		Status:      models.TaskStatusPending,
		Priority:    models.Priority(p.str("priority", string(models.PriorityMedium))),
	}
	if _, ok := p["sla_minutes"]; ok {
		sla := p.integer("sla_minutes", 0)
		task.SLAMinutes = &sla
	}
	task.OwnerID = rec.GetMeta().OwnerID
	task.SetParent(models.RefOf(rec))
	return false, uow.Create(ctx, task)
}

func (e *ActionExecutorImpl) sendNotification(ctx context.Context, rec models.Record, p params) error {
	return e.notifier.Notify(ctx, Notification{
		UserID:  p.str("user_id", rec.GetMeta().OwnerID),
		Title:   render(p.str("title", ""), rec),
		Message: render(p.str("message", ""), rec),
		Record:  models.RefOf(rec),
	})
}

func (e *ActionExecutorImpl) logCommunication(ctx context.Context, uow *lifecycle.UnitOfWork, rec models.Record, p params) (bool, error) {
	channel := p.str("type", "email")
	subject := render(p.str("subject", "Automated Message"), rec)
	content := render(p.str("content", ""), rec)
	now := e.dispatcher.Scoring().Now()
	did := false

	if models.Supports(rec.Kind(), models.CapCommunications) {
		comm := &models.Communication{
			Type:           channel,
			Direction:      p.str("direction", "outbound"),
			Subject:        subject,
			Content:        content,
			FromIdentifier: p.str("from", "system@crm.com"),
			ToIdentifier:   recipient(rec),
			Status:         "sent",
		}
		comm.OwnerID = rec.GetMeta().OwnerID
		comm.SetParent(models.RefOf(rec))
		if err := uow.Create(ctx, comm); err != nil {
			return false, err
		}
		did = true
	}

	if models.Supports(rec.Kind(), models.CapActivities) {
		activity := &models.Activity{
			Type:         channel,
			Subject:      subject,
			Description:  content,
			ActivityDate: &now,
			Status:       models.ActivityStatusCompleted,
		}
		activity.OwnerID = rec.GetMeta().OwnerID
		activity.SetParent(models.RefOf(rec))
		if err := uow.Create(ctx, activity); err != nil {
			return false, err
		}
		did = true
	}
	return !did, nil
}

func (e *ActionExecutorImpl) createActivity(ctx context.Context, uow *lifecycle.UnitOfWork, rec models.Record, p params) (bool, error) {
	if !models.Supports(rec.Kind(), models.CapActivities) {
		return true, nil
	}
	when := e.dispatcher.Scoring().Now().AddDate(0, 0, p.integer("days_due", 0))
	activity := &models.Activity{
		Type:         p.str("type", "task"),
		Subject:      render(p.str("subject", "Automated Activity"), rec),
		Description:  render(p.str("description", ""), rec),
		ActivityDate: &when,
		Status:       models.ActivityStatusPending,
	}
	if due, ok := models.ValueOf(p["due_date"]).AsTime(); ok {
		activity.DueDate = &due
	}
	activity.OwnerID = rec.GetMeta().OwnerID
	activity.SetParent(models.RefOf(rec))
	return false, uow.Create(ctx, activity)
}

// runScript evaluates a tengo script with the record exposed as `record`.
// Keys the script puts into `updates` are applied like update_field.
func (e *ActionExecutorImpl) runScript(ctx context.Context, uow *lifecycle.UnitOfWork, rec models.Record, p params) error {
	source := p.str("script", "")
	if source == "" {
		return fmt.Errorf("script content is required")
	}

	script := tengo.NewScript([]byte(source))
	if err := script.Add("kind", rec.Kind().String()); err != nil {
		return err
	}
	if err := script.Add("record", models.Export(rec)); err != nil {
		return fmt.Errorf("expose record to script: %w", err)
	}
	if err := script.Add("updates", map[string]interface{}{}); err != nil {
		return err
	}

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile script: %w", err)
	}
	runCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	if err := compiled.RunContext(runCtx); err != nil {
		return fmt.Errorf("failed to run script: %w", err)
	}

	updates := compiled.Get("updates").Map()
	if len(updates) == 0 {
		return nil
	}
	for field, value := range updates {
		if err := rec.SetField(field, models.ValueOf(value)); err != nil {
			return fmt.Errorf("script update %q: %w", field, err)
		}
	}
	e.logger.Debug("script updated record", zap.Stringer("record", models.RefOf(rec)), zap.Int("fields", len(updates)))
	return uow.Update(ctx, rec)
}

func recipient(rec models.Record) string {
	for _, field := range []string{"email", "phone"} {
		if v, ok := rec.Field(field); ok && !v.IsNull() && v.String() != "" {
			return v.String()
		}
	}
	return "unknown"
}

var placeholder = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// render replaces {{field}} with the record's value for field. Unknown
// fields are left as written.
func render(text string, rec models.Record) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := rec.Field(name); ok {
			return v.String()
		}
		return m
	})
}

type params map[string]any

func (p params) str(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return models.ValueOf(v).String()
}

func (p params) integer(key string, def int) int {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	n, ok := models.ValueOf(v).Number()
	if !ok {
		return def
	}
	return int(n)
}
