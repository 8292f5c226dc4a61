package workflow

import (
	"errors"
	"fmt"
)

type ActionType string

const (
	ActionUpdateField      ActionType = "update_field"
	ActionCreateTask       ActionType = "create_task"
	ActionSendNotification ActionType = "send_notification"
	ActionLogCommunication ActionType = "log_communication"
	ActionCreateActivity   ActionType = "create_activity"
	ActionRunScript        ActionType = "run_script"
)

var knownActions = map[ActionType]bool{
	ActionUpdateField:      true,
	ActionCreateTask:       true,
	ActionSendNotification: true,
	ActionLogCommunication: true,
	ActionCreateActivity:   true,
	ActionRunScript:        true,
}

var (
	ErrUnknownAction = errors.New("unknown action type")
	ErrInvalidRule   = errors.New("invalid workflow rule")
	ErrRuleNotFound  = errors.New("workflow rule not found")
)

// ActionOutcome records how one action of a matched rule ended.
type ActionOutcome struct {
	Type    string `json:"type"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
	err     error
}

// RuleOutcome records the evaluation of one rule for an event.
type RuleOutcome struct {
	RuleID   string          `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	Matched  bool            `json:"matched"`
	Anomaly  string          `json:"anomaly,omitempty"`
	Actions  []ActionOutcome `json:"actions,omitempty"`
}

// DispatchReport is the result of one Dispatch call.
type DispatchReport struct {
	EventType string        `json:"event_type"`
	RecordID  string        `json:"record_id"`
	Rules     []RuleOutcome `json:"rules"`
}

// Err joins every action failure in the report.
func (r *DispatchReport) Err() error {
	var errs []error
	for _, rule := range r.Rules {
		for _, a := range rule.Actions {
			if a.err != nil {
				errs = append(errs, fmt.Errorf("rule %q action %s: %w", rule.RuleName, a.Type, a.err))
			}
		}
	}
	return errors.Join(errs...)
}

// Matched counts the rules whose conditions held.
func (r *DispatchReport) Matched() int {
	n := 0
	for _, rule := range r.Rules {
		if rule.Matched {
			n++
		}
	}
	return n
}
