package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rulesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "workflow",
		Name:      "rules_evaluated_total",
		Help:      "Rules evaluated, labelled by event type and whether they matched.",
	}, []string{"event_type", "matched"})

	conditionAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "workflow",
		Name:      "condition_anomalies_total",
		Help:      "Conditions that could not be evaluated (unknown operator or missing field).",
	}, []string{"event_type"})

	actionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "workflow",
		Name:      "actions_executed_total",
		Help:      "Workflow actions executed, labelled by type and outcome.",
	}, []string{"type", "outcome"})

	ruleCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "workflow",
		Name:      "rule_cache_lookups_total",
		Help:      "Rule cache lookups by result.",
	}, []string{"result"})
)
