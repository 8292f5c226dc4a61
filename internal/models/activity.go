package models

import "time"

type ActivityStatus string

const (
	ActivityStatusPending   ActivityStatus = "pending"
	ActivityStatusCompleted ActivityStatus = "completed"
)

type Activity struct {
	Meta         `bson:",inline"`
	Type         string         `json:"type" bson:"type"`
	Subject      string         `json:"subject" bson:"subject"`
	Description  string         `json:"description,omitempty" bson:"description,omitempty"`
	ActivityDate *time.Time     `json:"activity_date,omitempty" bson:"activity_date,omitempty"`
	DueDate      *time.Time     `json:"due_date,omitempty" bson:"due_date,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Status       ActivityStatus `json:"status" bson:"status"`
	ParentType   Kind           `json:"parent_type" bson:"parent_type"`
	ParentID     string         `json:"parent_id" bson:"parent_id"`
}

var activityFields = merge(
	fieldTable[Activity]{
		"type":          text(func(a *Activity) *string { return &a.Type }),
		"subject":       text(func(a *Activity) *string { return &a.Subject }),
		"description":   text(func(a *Activity) *string { return &a.Description }),
		"activity_date": timestamp(func(a *Activity) **time.Time { return &a.ActivityDate }),
		"due_date":      timestamp(func(a *Activity) **time.Time { return &a.DueDate }),
		"completed_at":  timestamp(func(a *Activity) **time.Time { return &a.CompletedAt }),
		"status":        text(func(a *Activity) *string { return (*string)(&a.Status) }),
	},
	parentFields(func(a *Activity) *Kind { return &a.ParentType }, func(a *Activity) *string { return &a.ParentID }),
)

func (a *Activity) Kind() Kind                      { return KindActivity }
func (a *Activity) GetStatus() string               { return string(a.Status) }
func (a *Activity) SetStatus(s string)              { a.Status = ActivityStatus(s) }
func (a *Activity) Field(name string) (Value, bool) { return activityFields.field(a, &a.Meta, name) }
func (a *Activity) SetField(name string, v Value) error {
	return activityFields.setField(a, &a.Meta, name, v)
}
func (a *Activity) FieldNames() []string { return activityFields.names() }
func (a *Activity) GetParent() Ref       { return Ref{Kind: a.ParentType, ID: a.ParentID} }
func (a *Activity) SetParent(r Ref)      { a.ParentType, a.ParentID = r.Kind, r.ID }
