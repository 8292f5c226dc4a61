package models

import "time"

type DealStatus string

const (
	DealStatusOpen DealStatus = "open"
	DealStatusWon  DealStatus = "won"
	DealStatusLost DealStatus = "lost"
)

type Deal struct {
	Meta              `bson:",inline"`
	Title             string     `json:"title" bson:"title"`
	Description       string     `json:"description,omitempty" bson:"description,omitempty"`
	Value             float64    `json:"value" bson:"value"`
	Currency          string     `json:"currency,omitempty" bson:"currency,omitempty"`
	Stage             string     `json:"stage,omitempty" bson:"stage,omitempty"`
	ContactID         string     `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	ClientID          string     `json:"client_id,omitempty" bson:"client_id,omitempty"`
	PartnerID         string     `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	ContactName       string     `json:"contact_name,omitempty" bson:"contact_name,omitempty"`
	ClientName        string     `json:"client_name,omitempty" bson:"client_name,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty" bson:"expected_close_date,omitempty"`
	ActualCloseDate   *time.Time `json:"actual_close_date,omitempty" bson:"actual_close_date,omitempty"`
	Probability       int        `json:"probability" bson:"probability"`
	Status            DealStatus `json:"status" bson:"status"`
	LostReason        string     `json:"lost_reason,omitempty" bson:"lost_reason,omitempty"`
}

var dealFields = fieldTable[Deal]{
	"title":               text(func(d *Deal) *string { return &d.Title }),
	"description":         text(func(d *Deal) *string { return &d.Description }),
	"value":               number(func(d *Deal) *float64 { return &d.Value }),
	"currency":            text(func(d *Deal) *string { return &d.Currency }),
	"stage":               text(func(d *Deal) *string { return &d.Stage }),
	"contact_id":          text(func(d *Deal) *string { return &d.ContactID }),
	"client_id":           text(func(d *Deal) *string { return &d.ClientID }),
	"partner_id":          text(func(d *Deal) *string { return &d.PartnerID }),
	"contact_name":        text(func(d *Deal) *string { return &d.ContactName }),
	"client_name":         text(func(d *Deal) *string { return &d.ClientName }),
	"expected_close_date": timestamp(func(d *Deal) **time.Time { return &d.ExpectedCloseDate }),
	"actual_close_date":   timestamp(func(d *Deal) **time.Time { return &d.ActualCloseDate }),
	"probability":         integer(func(d *Deal) *int { return &d.Probability }),
	"status":              text(func(d *Deal) *string { return (*string)(&d.Status) }),
	"lost_reason":         text(func(d *Deal) *string { return &d.LostReason }),
}

func (d *Deal) Kind() Kind                      { return KindDeal }
func (d *Deal) GetStatus() string               { return string(d.Status) }
func (d *Deal) SetStatus(s string)              { d.Status = DealStatus(s) }
func (d *Deal) Field(name string) (Value, bool) { return dealFields.field(d, &d.Meta, name) }
func (d *Deal) SetField(name string, v Value) error {
	return dealFields.setField(d, &d.Meta, name, v)
}
func (d *Deal) FieldNames() []string { return dealFields.names() }
