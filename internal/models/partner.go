package models

type PartnerType string

const (
	PartnerTypeReferral   PartnerType = "referral"
	PartnerTypeReseller   PartnerType = "reseller"
	PartnerTypeTechnology PartnerType = "technology"
	PartnerTypeService    PartnerType = "service"
	PartnerTypeOther      PartnerType = "other"
)

type PartnerStatus string

const (
	PartnerStatusActive   PartnerStatus = "active"
	PartnerStatusInactive PartnerStatus = "inactive"
	PartnerStatusPending  PartnerStatus = "pending"
)

type Partner struct {
	Meta             `bson:",inline"`
	Name             string        `json:"name" bson:"name"`
	Type             PartnerType   `json:"type" bson:"type"`
	Status           PartnerStatus `json:"status" bson:"status"`
	Email            string        `json:"email,omitempty" bson:"email,omitempty"`
	Phone            string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Website          string        `json:"website,omitempty" bson:"website,omitempty"`
	Description      string        `json:"description,omitempty" bson:"description,omitempty"`
	CommissionRate   float64       `json:"commission_rate" bson:"commission_rate"`
	AccountManagerID string        `json:"account_manager_id,omitempty" bson:"account_manager_id,omitempty"`
}

var partnerFields = fieldTable[Partner]{
	"name":               text(func(p *Partner) *string { return &p.Name }),
	"type":               text(func(p *Partner) *string { return (*string)(&p.Type) }),
	"status":             text(func(p *Partner) *string { return (*string)(&p.Status) }),
	"email":              text(func(p *Partner) *string { return &p.Email }),
	"phone":              text(func(p *Partner) *string { return &p.Phone }),
	"website":            text(func(p *Partner) *string { return &p.Website }),
	"description":        text(func(p *Partner) *string { return &p.Description }),
	"commission_rate":    number(func(p *Partner) *float64 { return &p.CommissionRate }),
	"account_manager_id": text(func(p *Partner) *string { return &p.AccountManagerID }),
}

func (p *Partner) Kind() Kind                      { return KindPartner }
func (p *Partner) GetStatus() string               { return string(p.Status) }
func (p *Partner) SetStatus(s string)              { p.Status = PartnerStatus(s) }
func (p *Partner) Field(name string) (Value, bool) { return partnerFields.field(p, &p.Meta, name) }
func (p *Partner) SetField(name string, v Value) error {
	return partnerFields.setField(p, &p.Meta, name, v)
}
func (p *Partner) FieldNames() []string { return partnerFields.names() }
