package models

import (
	"strings"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Lead is a prospective customer. Score is derived and recomputed before
// every persist.
type Lead struct {
	Meta                `bson:",inline"`
	FirstName           string     `json:"first_name" bson:"first_name"`
	LastName            string     `json:"last_name" bson:"last_name"`
	Email               string     `json:"email,omitempty" bson:"email,omitempty"`
	Phone               string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Mobile              string     `json:"mobile,omitempty" bson:"mobile,omitempty"`
	CompanyName         string     `json:"company_name,omitempty" bson:"company_name,omitempty"`
	JobTitle            string     `json:"job_title,omitempty" bson:"job_title,omitempty"`
	Source              string     `json:"source,omitempty" bson:"source,omitempty"`
	Status              LeadStatus `json:"status" bson:"status"`
	Score               int        `json:"score" bson:"score"`
	Address             `bson:",inline"`
	Notes               string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Tags                []string   `json:"tags,omitempty" bson:"tags,omitempty"`
	ConvertedToClientID string     `json:"converted_to_client_id,omitempty" bson:"converted_to_client_id,omitempty"`
	ConvertedToDealID   string     `json:"converted_to_deal_id,omitempty" bson:"converted_to_deal_id,omitempty"`
	ConvertedAt         *time.Time `json:"converted_at,omitempty" bson:"converted_at,omitempty"`
}

var leadFields = merge(
	fieldTable[Lead]{
		"first_name":   text(func(l *Lead) *string { return &l.FirstName }),
		"last_name":    text(func(l *Lead) *string { return &l.LastName }),
		"email":        text(func(l *Lead) *string { return &l.Email }),
		"phone":        text(func(l *Lead) *string { return &l.Phone }),
		"mobile":       text(func(l *Lead) *string { return &l.Mobile }),
		"company_name": text(func(l *Lead) *string { return &l.CompanyName }),
		"job_title":    text(func(l *Lead) *string { return &l.JobTitle }),
		"source":       text(func(l *Lead) *string { return &l.Source }),
		"status":       text(func(l *Lead) *string { return (*string)(&l.Status) }),
		"score":        readOnlyInteger(func(l *Lead) *int { return &l.Score }),
		"notes":        text(func(l *Lead) *string { return &l.Notes }),
		"tags": {
			get: func(l *Lead) Value { return StringOrNull(strings.Join(l.Tags, ",")) },
			set: func(l *Lead, v Value) error {
				l.Tags = splitTags(v.String())
				return nil
			},
		},
		"converted_to_client_id": readOnlyText(func(l *Lead) *string { return &l.ConvertedToClientID }),
		"converted_to_deal_id":   readOnlyText(func(l *Lead) *string { return &l.ConvertedToDealID }),
		"converted_at":           readOnlyTimestamp(func(l *Lead) **time.Time { return &l.ConvertedAt }),
	},
	addressFields(func(l *Lead) *Address { return &l.Address }),
)

func (l *Lead) Kind() Kind                      { return KindLead }
func (l *Lead) GetStatus() string               { return string(l.Status) }
func (l *Lead) SetStatus(s string)              { l.Status = LeadStatus(s) }
func (l *Lead) Field(name string) (Value, bool) { return leadFields.field(l, &l.Meta, name) }
func (l *Lead) SetField(name string, v Value) error {
	return leadFields.setField(l, &l.Meta, name, v)
}
func (l *Lead) FieldNames() []string { return leadFields.names() }

// FullName joins first and last name, skipping empty parts.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
