package models

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

type Client struct {
	Meta     `bson:",inline"`
	Name     string       `json:"name" bson:"name"`
	Industry string       `json:"industry,omitempty" bson:"industry,omitempty"`
	Website  string       `json:"website,omitempty" bson:"website,omitempty"`
	Email    string       `json:"email,omitempty" bson:"email,omitempty"`
	Phone    string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Status   ClientStatus `json:"status" bson:"status"`
	Address  `bson:",inline"`
	Notes    string `json:"notes,omitempty" bson:"notes,omitempty"`
}

var clientFields = merge(
	fieldTable[Client]{
		"name":     text(func(c *Client) *string { return &c.Name }),
		"industry": text(func(c *Client) *string { return &c.Industry }),
		"website":  text(func(c *Client) *string { return &c.Website }),
		"email":    text(func(c *Client) *string { return &c.Email }),
		"phone":    text(func(c *Client) *string { return &c.Phone }),
		"status":   text(func(c *Client) *string { return (*string)(&c.Status) }),
		"notes":    text(func(c *Client) *string { return &c.Notes }),
	},
	addressFields(func(c *Client) *Address { return &c.Address }),
)

func (c *Client) Kind() Kind                      { return KindClient }
func (c *Client) GetStatus() string               { return string(c.Status) }
func (c *Client) SetStatus(s string)              { c.Status = ClientStatus(s) }
func (c *Client) Field(name string) (Value, bool) { return clientFields.field(c, &c.Meta, name) }
func (c *Client) SetField(name string, v Value) error {
	return clientFields.setField(c, &c.Meta, name, v)
}
func (c *Client) FieldNames() []string { return clientFields.names() }
