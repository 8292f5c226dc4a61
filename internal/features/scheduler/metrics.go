package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crm",
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Wall time of scheduled job runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	tasksEscalated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "scheduler",
		Name:      "tasks_escalated_total",
		Help:      "High priority tasks stamped as escalated after an SLA breach.",
	})
)
