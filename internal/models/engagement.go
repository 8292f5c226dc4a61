package models

import "time"

// Engagement is a scored interaction with a parent record. Engagements on
// a Lead feed its behavioural score.
type Engagement struct {
	Meta           `bson:",inline"`
	Type           string     `json:"type" bson:"type"`
	Subject        string     `json:"subject,omitempty" bson:"subject,omitempty"`
	Description    string     `json:"description,omitempty" bson:"description,omitempty"`
	Score          float64    `json:"score" bson:"score"`
	EngagementDate *time.Time `json:"engagement_date,omitempty" bson:"engagement_date,omitempty"`
	Status         string     `json:"status,omitempty" bson:"status,omitempty"`
	ParentType     Kind       `json:"parent_type" bson:"parent_type"`
	ParentID       string     `json:"parent_id" bson:"parent_id"`
}

var engagementFields = merge(
	fieldTable[Engagement]{
		"type":            text(func(e *Engagement) *string { return &e.Type }),
		"subject":         text(func(e *Engagement) *string { return &e.Subject }),
		"description":     text(func(e *Engagement) *string { return &e.Description }),
		"score":           number(func(e *Engagement) *float64 { return &e.Score }),
		"engagement_date": timestamp(func(e *Engagement) **time.Time { return &e.EngagementDate }),
		"status":          text(func(e *Engagement) *string { return &e.Status }),
	},
	parentFields(func(e *Engagement) *Kind { return &e.ParentType }, func(e *Engagement) *string { return &e.ParentID }),
)

func (e *Engagement) Kind() Kind         { return KindEngagement }
func (e *Engagement) GetStatus() string  { return e.Status }
func (e *Engagement) SetStatus(s string) { e.Status = s }
func (e *Engagement) Field(name string) (Value, bool) {
	return engagementFields.field(e, &e.Meta, name)
}
func (e *Engagement) SetField(name string, v Value) error {
	return engagementFields.setField(e, &e.Meta, name, v)
}
func (e *Engagement) FieldNames() []string { return engagementFields.names() }
func (e *Engagement) GetParent() Ref       { return Ref{Kind: e.ParentType, ID: e.ParentID} }
func (e *Engagement) SetParent(r Ref)      { e.ParentType, e.ParentID = r.Kind, r.ID }
