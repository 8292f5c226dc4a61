package models

// Condition is one {field, operator, value} predicate. Workflow rules and
// store queries share this shape.
type Condition struct {
	Field    string `json:"field" bson:"field"`
	Operator string `json:"operator" bson:"operator"`
	Value    any    `json:"value" bson:"value"`
}

// Action is one workflow step; Params is interpreted per Type.
type Action struct {
	Type   string         `json:"type" bson:"type"`
	Params map[string]any `json:"params,omitempty" bson:"params,omitempty"`
}

// Workflow is a declarative automation rule bound to an event type such as
// "lead.updated".
type Workflow struct {
	Meta        `bson:",inline"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	EventType   string      `json:"event_type" bson:"event_type"`
	Conditions  []Condition `json:"conditions" bson:"conditions"`
	Actions     []Action    `json:"actions" bson:"actions"`
	IsActive    bool        `json:"is_active" bson:"is_active"`
	Priority    int         `json:"priority" bson:"priority"`
}

var workflowFields = fieldTable[Workflow]{
	"name":        text(func(w *Workflow) *string { return &w.Name }),
	"description": text(func(w *Workflow) *string { return &w.Description }),
	"event_type":  text(func(w *Workflow) *string { return &w.EventType }),
	"is_active":   boolean(func(w *Workflow) *bool { return &w.IsActive }),
	"priority":    integer(func(w *Workflow) *int { return &w.Priority }),
}

func (w *Workflow) Kind() Kind { return KindWorkflow }

func (w *Workflow) GetStatus() string {
	if w.IsActive {
		return "active"
	}
	return "inactive"
}

func (w *Workflow) SetStatus(s string)              { w.IsActive = s == "active" }
func (w *Workflow) Field(name string) (Value, bool) { return workflowFields.field(w, &w.Meta, name) }
func (w *Workflow) SetField(name string, v Value) error {
	return workflowFields.setField(w, &w.Meta, name, v)
}
func (w *Workflow) FieldNames() []string { return workflowFields.names() }
