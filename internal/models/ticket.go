package models

// TicketStatus represents the status of a ticket
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
)

// Ticket represents a customer support ticket
type Ticket struct {
	Meta         `bson:",inline"`
	TicketNumber string       `json:"ticket_number" bson:"ticket_number"` // unique, e.g. TIC-4F2A9C
	Subject      string       `json:"subject" bson:"subject"`
	Description  string       `json:"description,omitempty" bson:"description,omitempty"`
	Status       TicketStatus `json:"status" bson:"status"`
	Priority     Priority     `json:"priority" bson:"priority"`
	Category     string       `json:"category,omitempty" bson:"category,omitempty"`
	ClientID     string       `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ContactID    string       `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	ReporterID   string       `json:"reporter_id,omitempty" bson:"reporter_id,omitempty"`
	AssignedTo   string       `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
}

var ticketFields = fieldTable[Ticket]{
	"ticket_number": readOnlyText(func(t *Ticket) *string { return &t.TicketNumber }),
	"subject":       text(func(t *Ticket) *string { return &t.Subject }),
	"description":   text(func(t *Ticket) *string { return &t.Description }),
	"status":        text(func(t *Ticket) *string { return (*string)(&t.Status) }),
	"priority":      text(func(t *Ticket) *string { return (*string)(&t.Priority) }),
	"category":      text(func(t *Ticket) *string { return &t.Category }),
	"client_id":     text(func(t *Ticket) *string { return &t.ClientID }),
	"contact_id":    text(func(t *Ticket) *string { return &t.ContactID }),
	"reporter_id":   text(func(t *Ticket) *string { return &t.ReporterID }),
	"assigned_to":   text(func(t *Ticket) *string { return &t.AssignedTo }),
}

func (t *Ticket) Kind() Kind                      { return KindTicket }
func (t *Ticket) GetStatus() string               { return string(t.Status) }
func (t *Ticket) SetStatus(s string)              { t.Status = TicketStatus(s) }
func (t *Ticket) Field(name string) (Value, bool) { return ticketFields.field(t, &t.Meta, name) }
func (t *Ticket) SetField(name string, v Value) error {
	return ticketFields.setField(t, &t.Meta, name, v)
}
func (t *Ticket) FieldNames() []string { return ticketFields.names() }
