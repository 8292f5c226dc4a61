package models

type Communication struct {
	Meta           `bson:",inline"`
	Type           string `json:"type" bson:"type"`
	Direction      string `json:"direction" bson:"direction"`
	Subject        string `json:"subject,omitempty" bson:"subject,omitempty"`
	Content        string `json:"content,omitempty" bson:"content,omitempty"`
	Status         string `json:"status" bson:"status"`
	FromIdentifier string `json:"from_identifier,omitempty" bson:"from_identifier,omitempty"`
	ToIdentifier   string `json:"to_identifier,omitempty" bson:"to_identifier,omitempty"`
	ParentType     Kind   `json:"parent_type" bson:"parent_type"`
	ParentID       string `json:"parent_id" bson:"parent_id"`
}

var communicationFields = merge(
	fieldTable[Communication]{
		"type":            text(func(c *Communication) *string { return &c.Type }),
		"direction":       text(func(c *Communication) *string { return &c.Direction }),
		"subject":         text(func(c *Communication) *string { return &c.Subject }),
		"content":         text(func(c *Communication) *string { return &c.Content }),
		"status":          text(func(c *Communication) *string { return &c.Status }),
		"from_identifier": text(func(c *Communication) *string { return &c.FromIdentifier }),
		"to_identifier":   text(func(c *Communication) *string { return &c.ToIdentifier }),
	},
	parentFields(func(c *Communication) *Kind { return &c.ParentType }, func(c *Communication) *string { return &c.ParentID }),
)

func (c *Communication) Kind() Kind         { return KindCommunication }
func (c *Communication) GetStatus() string  { return c.Status }
func (c *Communication) SetStatus(s string) { c.Status = s }
func (c *Communication) Field(name string) (Value, bool) {
	return communicationFields.field(c, &c.Meta, name)
}
func (c *Communication) SetField(name string, v Value) error {
	return communicationFields.setField(c, &c.Meta, name, v)
}
func (c *Communication) FieldNames() []string { return communicationFields.names() }
func (c *Communication) GetParent() Ref       { return Ref{Kind: c.ParentType, ID: c.ParentID} }
func (c *Communication) SetParent(r Ref)      { c.ParentType, c.ParentID = r.Kind, r.ID }
