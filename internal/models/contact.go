package models

import "strings"

type ContactStatus string

const (
	ContactStatusActive   ContactStatus = "active"
	ContactStatusInactive ContactStatus = "inactive"
)

type Contact struct {
	Meta      `bson:",inline"`
	FirstName string        `json:"first_name" bson:"first_name"`
	LastName  string        `json:"last_name" bson:"last_name"`
	Email     string        `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Mobile    string        `json:"mobile,omitempty" bson:"mobile,omitempty"`
	JobTitle  string        `json:"job_title,omitempty" bson:"job_title,omitempty"`
	ClientID  string        `json:"client_id,omitempty" bson:"client_id,omitempty"`
	Status    ContactStatus `json:"status" bson:"status"`
	Address   `bson:",inline"`
	Notes     string `json:"notes,omitempty" bson:"notes,omitempty"`
}

var contactFields = merge(
	fieldTable[Contact]{
		"first_name": text(func(c *Contact) *string { return &c.FirstName }),
		"last_name":  text(func(c *Contact) *string { return &c.LastName }),
		"email":      text(func(c *Contact) *string { return &c.Email }),
		"phone":      text(func(c *Contact) *string { return &c.Phone }),
		"mobile":     text(func(c *Contact) *string { return &c.Mobile }),
		"job_title":  text(func(c *Contact) *string { return &c.JobTitle }),
		"client_id":  text(func(c *Contact) *string { return &c.ClientID }),
		"status":     text(func(c *Contact) *string { return (*string)(&c.Status) }),
		"notes":      text(func(c *Contact) *string { return &c.Notes }),
	},
	addressFields(func(c *Contact) *Address { return &c.Address }),
)

func (c *Contact) Kind() Kind                      { return KindContact }
func (c *Contact) GetStatus() string               { return string(c.Status) }
func (c *Contact) SetStatus(s string)              { c.Status = ContactStatus(s) }
func (c *Contact) Field(name string) (Value, bool) { return contactFields.field(c, &c.Meta, name) }
func (c *Contact) SetField(name string, v Value) error {
	return contactFields.setField(c, &c.Meta, name, v)
}
func (c *Contact) FieldNames() []string { return contactFields.names() }

func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
