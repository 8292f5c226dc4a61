package models

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Task is a unit of work attached to a taskable parent. PriorityScore and
// SuggestedActions are derived.
type Task struct {
	Meta             `bson:",inline"`
	Title            string     `json:"title" bson:"title"`
	Type             string     `json:"type,omitempty" bson:"type,omitempty"`
	Description      string     `json:"description,omitempty" bson:"description,omitempty"`
	Status           TaskStatus `json:"status" bson:"status"`
	Priority         Priority   `json:"priority" bson:"priority"`
	PriorityScore    int        `json:"priority_score" bson:"priority_score"`
	DueDate          *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	SLAMinutes       *int       `json:"sla_minutes,omitempty" bson:"sla_minutes,omitempty"`
	EscalatedAt      *time.Time `json:"escalated_at,omitempty" bson:"escalated_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	SuggestedActions []string   `json:"suggested_actions,omitempty" bson:"suggested_actions,omitempty"`
	ParentType       Kind       `json:"parent_type" bson:"parent_type"`
	ParentID         string     `json:"parent_id" bson:"parent_id"`
	ProjectID        string     `json:"project_id,omitempty" bson:"project_id,omitempty"`
	AssignedTo       string     `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
}

var taskFields = merge(
	fieldTable[Task]{
		"title":          text(func(t *Task) *string { return &t.Title }),
		"type":           text(func(t *Task) *string { return &t.Type }),
		"description":    text(func(t *Task) *string { return &t.Description }),
		"status":         text(func(t *Task) *string { return (*string)(&t.Status) }),
		"priority":       text(func(t *Task) *string { return (*string)(&t.Priority) }),
		"priority_score": readOnlyInteger(func(t *Task) *int { return &t.PriorityScore }),
		"due_date":       timestamp(func(t *Task) **time.Time { return &t.DueDate }),
		"sla_minutes":    optionalInteger(func(t *Task) **int { return &t.SLAMinutes }),
		"escalated_at":   timestamp(func(t *Task) **time.Time { return &t.EscalatedAt }),
		"completed_at":   timestamp(func(t *Task) **time.Time { return &t.CompletedAt }),
		"suggested_actions": {
			get: func(t *Task) Value { return StringOrNull(strings.Join(t.SuggestedActions, ",")) },
		},
		"project_id":  text(func(t *Task) *string { return &t.ProjectID }),
		"assigned_to": text(func(t *Task) *string { return &t.AssignedTo }),
	},
	parentFields(func(t *Task) *Kind { return &t.ParentType }, func(t *Task) *string { return &t.ParentID }),
)

func (t *Task) Kind() Kind                      { return KindTask }
func (t *Task) GetStatus() string               { return string(t.Status) }
func (t *Task) SetStatus(s string)              { t.Status = TaskStatus(s) }
func (t *Task) Field(name string) (Value, bool) { return taskFields.field(t, &t.Meta, name) }
func (t *Task) SetField(name string, v Value) error {
	return taskFields.setField(t, &t.Meta, name, v)
}
func (t *Task) FieldNames() []string { return taskFields.names() }
func (t *Task) GetParent() Ref       { return Ref{Kind: t.ParentType, ID: t.ParentID} }
func (t *Task) SetParent(r Ref)      { t.ParentType, t.ParentID = r.Kind, r.ID }
