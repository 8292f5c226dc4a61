package models

import "time"

type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "pending"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

type Project struct {
	Meta        `bson:",inline"`
	Name        string        `json:"name" bson:"name"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	Status      ProjectStatus `json:"status" bson:"status"`
	Priority    Priority      `json:"priority" bson:"priority"`
	Progress    int           `json:"progress" bson:"progress"`
	StartDate   *time.Time    `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty" bson:"end_date,omitempty"`
	Budget      float64       `json:"budget" bson:"budget"`
	ClientID    string        `json:"client_id,omitempty" bson:"client_id,omitempty"`
	DealID      string        `json:"deal_id,omitempty" bson:"deal_id,omitempty"`
}

var projectFields = fieldTable[Project]{
	"name":        text(func(p *Project) *string { return &p.Name }),
	"description": text(func(p *Project) *string { return &p.Description }),
	"status":      text(func(p *Project) *string { return (*string)(&p.Status) }),
	"priority":    text(func(p *Project) *string { return (*string)(&p.Priority) }),
	"progress":    readOnlyInteger(func(p *Project) *int { return &p.Progress }),
	"start_date":  timestamp(func(p *Project) **time.Time { return &p.StartDate }),
	"end_date":    timestamp(func(p *Project) **time.Time { return &p.EndDate }),
	"budget":      number(func(p *Project) *float64 { return &p.Budget }),
	"client_id":   text(func(p *Project) *string { return &p.ClientID }),
	"deal_id":     text(func(p *Project) *string { return &p.DealID }),
}

func (p *Project) Kind() Kind                      { return KindProject }
func (p *Project) GetStatus() string               { return string(p.Status) }
func (p *Project) SetStatus(s string)              { p.Status = ProjectStatus(s) }
func (p *Project) Field(name string) (Value, bool) { return projectFields.field(p, &p.Meta, name) }
func (p *Project) SetField(name string, v Value) error {
	return projectFields.setField(p, &p.Meta, name, v)
}
func (p *Project) FieldNames() []string { return projectFields.names() }
