package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-crm-core/internal/config"
	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/features/scoring"
	"go-crm-core/internal/features/workflow"
	"go-crm-core/internal/identity"
	"go-crm-core/internal/models"
	"go-crm-core/pkg/condition"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrUnknownJob = errors.New("unknown job")

type SchedulerService interface {
	SweepTasks(ctx context.Context) (SweepReport, error)
	RescoreLeads(ctx context.Context) (RescoreReport, error)
	RunJob(ctx context.Context, name string) (any, error)
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	Runs() []JobRun
}

type SchedulerServiceImpl struct {
	dispatcher *lifecycle.Dispatcher
	notifier   workflow.Notifier
	config     *config.Config
	logger     *zap.Logger

	scheduler  *cron.Cron
	jobEntries map[string]cron.EntryID
	runs       map[string]JobRun
	mu         sync.RWMutex
}

func NewSchedulerService(dispatcher *lifecycle.Dispatcher, notifier workflow.Notifier, cfg *config.Config, logger *zap.Logger) SchedulerService {
	return &SchedulerServiceImpl{
		dispatcher: dispatcher,
		notifier:   notifier,
		config:     cfg,
		logger:     logger.Named("scheduler"),
		jobEntries: make(map[string]cron.EntryID),
		runs:       make(map[string]JobRun),
	}
}

// SweepTasks recomputes time-dependent task scores and escalates high
// priority tasks whose SLA has lapsed. Each chunk commits on its own.
func (s *SchedulerServiceImpl) SweepTasks(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	ids, err := s.ids(ctx, models.KindTask,
		condition.In("status", string(models.TaskStatusPending), string(models.TaskStatusInProgress)))
	if err != nil {
		return report, fmt.Errorf("list open tasks: %w", err)
	}
	report.Scanned = len(ids)

	var escalated []*models.Task
	for start := 0; start < len(ids); start += chunkSize {
		chunk := ids[start:min(start+chunkSize, len(ids))]
		var rescored int
		var breached []*models.Task
		err := s.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
			rescored, breached = 0, nil
			now := s.dispatcher.Scoring().Now()
			for _, id := range chunk {
				rec, err := uow.Load(ctx, models.KindTask, id)
				if err != nil {
					// completed or deleted since listing
					continue
				}
				task := rec.(*models.Task)
				changed := s.dispatcher.Scoring().ApplyTaskScore(task)
				escalate := shouldEscalate(task, now)
				if escalate {
					task.EscalatedAt = &now
				}
				if !changed && !escalate {
					continue
				}
				if err := uow.UpdateQuietly(ctx, task); err != nil {
					return fmt.Errorf("task %s: %w", id, err)
				}
				if changed {
					rescored++
				}
				if escalate {
					breached = append(breached, task)
				}
			}
			return nil
		})
		if err != nil {
			return report, err
		}
		report.Rescored += rescored
		report.Escalated += len(breached)
		escalated = append(escalated, breached...)
	}

	tasksEscalated.Add(float64(len(escalated)))
	for _, task := range escalated {
		s.notifyEscalation(ctx, task)
	}
	return report, nil
}

func shouldEscalate(task *models.Task, now time.Time) bool {
	return task.Priority == models.PriorityHigh &&
		task.EscalatedAt == nil &&
		scoring.SLABreached(task, now)
}

func (s *SchedulerServiceImpl) notifyEscalation(ctx context.Context, task *models.Task) {
	recipient := task.AssignedTo
	if recipient == "" {
		recipient = task.OwnerID
	}
	err := s.notifier.Notify(ctx, workflow.Notification{
		UserID:  recipient,
		Title:   "Task SLA breached",
		Message: fmt.Sprintf("High priority task %q breached its SLA and was escalated.", task.Title),
		Record:  models.RefOf(task),
	})
	if err != nil {
		s.logger.Warn("Escalation notification failed", zap.String("task_id", task.ID), zap.Error(err))
	}
}

// RescoreLeads recomputes every live lead's score from its engagements.
func (s *SchedulerServiceImpl) RescoreLeads(ctx context.Context) (RescoreReport, error) {
	var report RescoreReport

	ids, err := s.ids(ctx, models.KindLead)
	if err != nil {
		return report, fmt.Errorf("list leads: %w", err)
	}
	report.Scanned = len(ids)

	for start := 0; start < len(ids); start += chunkSize {
		chunk := ids[start:min(start+chunkSize, len(ids))]
		var rescored int
		err := s.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
			rescored = 0
			for _, id := range chunk {
				rec, err := uow.Load(ctx, models.KindLead, id)
				if err != nil {
					continue
				}
				lead := rec.(*models.Lead)
				before := lead.Score
				if err := uow.UpdateQuietly(ctx, lead); err != nil {
					return fmt.Errorf("lead %s: %w", id, err)
				}
				if lead.Score != before {
					rescored++
				}
			}
			return nil
		})
		if err != nil {
			return report, err
		}
		report.Rescored += rescored
	}
	return report, nil
}

func (s *SchedulerServiceImpl) ids(ctx context.Context, kind models.Kind, conds ...models.Condition) ([]string, error) {
	var ids []string
	err := s.dispatcher.Run(ctx, func(ctx context.Context, uow *lifecycle.UnitOfWork) error {
		recs, err := uow.List(ctx, kind, conds...)
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(recs))
		for _, rec := range recs {
			ids = append(ids, rec.GetMeta().ID)
		}
		return nil
	})
	return ids, err
}

type job struct {
	name     string
	schedule string
	run      func(context.Context) (any, error)
}

func (s *SchedulerServiceImpl) jobs() []job {
	return []job{
		{JobSweepTasks, s.config.TaskSweepSchedule, func(ctx context.Context) (any, error) { return s.SweepTasks(ctx) }},
		{JobRescoreLeads, s.config.LeadRescoreSchedule, func(ctx context.Context) (any, error) { return s.RescoreLeads(ctx) }},
	}
}

// RunJob executes a job immediately, outside its schedule.
func (s *SchedulerServiceImpl) RunJob(ctx context.Context, name string) (any, error) {
	for _, j := range s.jobs() {
		if j.name == name {
			return s.execute(ctx, j)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

func (s *SchedulerServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.logger.Info("Initializing scheduler")
	s.scheduler = cron.New()

	for _, j := range s.jobs() {
		if j.schedule == "" {
			s.logger.Info("Job disabled", zap.String("job", j.name))
			continue
		}
		if err := s.registerJob(j); err != nil {
			return err
		}
	}

	s.scheduler.Start()
	return nil
}

func (s *SchedulerServiceImpl) StopScheduler() error {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}

func (s *SchedulerServiceImpl) registerJob(j job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return fmt.Errorf("scheduler not initialized")
	}

	entryID, err := s.scheduler.AddFunc(j.schedule, func() {
		s.execute(identity.WithActor(context.Background(), identity.SystemActor), j)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s to scheduler: %w", j.name, err)
	}
	s.jobEntries[j.name] = entryID
	return nil
}

func (s *SchedulerServiceImpl) execute(ctx context.Context, j job) (any, error) {
	name, schedule := j.name, j.schedule
	start := time.Now()
	result, err := j.run(ctx)
	elapsed := time.Since(start)
	jobDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	entry := JobRun{Job: name, Schedule: schedule, StartedAt: start.UTC(), Duration: elapsed.String()}
	if err != nil {
		entry.Error = err.Error()
		jobRuns.WithLabelValues(name, "failed").Inc()
		s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
	} else {
		jobRuns.WithLabelValues(name, "succeeded").Inc()
		s.logger.Info("Scheduled job finished", zap.String("job", name), zap.Any("result", result), zap.Duration("took", elapsed))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.jobEntries[name]; ok && s.scheduler != nil {
		entry.Next = s.scheduler.Entry(id).Next
	}
	s.runs[name] = entry
	return result, err
}

// Runs returns the last run of each job that has executed at least once.
func (s *SchedulerServiceImpl) Runs() []JobRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobRun, 0, len(s.runs))
	for _, name := range []string{JobSweepTasks, JobRescoreLeads} {
		if run, ok := s.runs[name]; ok {
			out = append(out, run)
		}
	}
	return out
}
