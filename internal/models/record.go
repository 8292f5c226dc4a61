package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind names an entity type. It doubles as the collection/table discriminator.
type Kind string

const (
	KindLead          Kind = "lead"
	KindContact       Kind = "contact"
	KindClient        Kind = "client"
	KindDeal          Kind = "deal"
	KindProject       Kind = "project"
	KindTask          Kind = "task"
	KindTicket        Kind = "ticket"
	KindPartner       Kind = "partner"
	KindEngagement    Kind = "engagement"
	KindActivity      Kind = "activity"
	KindCommunication Kind = "communication"
	KindWorkflow      Kind = "workflow"
)

// Kinds lists every persisted kind.
var Kinds = []Kind{
	KindLead, KindContact, KindClient, KindDeal, KindProject, KindTask, KindTicket,
	KindPartner, KindEngagement, KindActivity, KindCommunication, KindWorkflow,
}

func (k Kind) String() string { return string(k) }

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrDerivedField  = errors.New("field is derived and cannot be set")
	ErrInvalidValue  = errors.New("invalid value for field")
	ErrUnknownKind   = errors.New("unknown record kind")
	ErrNotChildKind  = errors.New("record kind has no parent")
	ErrMissingParent = errors.New("parent reference is required")
)

// Meta carries identity, ownership, audit and concurrency columns shared
// by every record.
type Meta struct {
	ID        string     `json:"id" bson:"_id"`
	OwnerID   string     `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	CreatedBy string     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty" bson:"deleted_by,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	Version   int64      `json:"version" bson:"version"`
}

func (m *Meta) GetMeta() *Meta { return m }

// Deleted reports whether the record has been soft-deleted.
func (m *Meta) Deleted() bool { return m.DeletedAt != nil }

// Ref is a polymorphic parent pointer (activityable, engageable, taskable, communicable).
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func (r Ref) IsZero() bool   { return r.Kind == "" || r.ID == "" }
func (r Ref) String() string { return fmt.Sprintf("%s/%s", r.Kind, r.ID) }

// RefOf returns the reference to rec.
func RefOf(rec Record) Ref { return Ref{Kind: rec.Kind(), ID: rec.GetMeta().ID} }

// Record is implemented by every persisted entity.
type Record interface {
	Kind() Kind
	GetMeta() *Meta
	GetStatus() string
	SetStatus(status string)
	// Field reads a named field. ok is false for names the kind does not define.
	Field(name string) (Value, bool)
	// SetField writes a named field, rejecting unknown and derived fields.
	SetField(name string, v Value) error
	FieldNames() []string
}

// Child is a record attached to a polymorphic parent.
type Child interface {
	Record
	GetParent() Ref
	SetParent(ref Ref)
}

// Parent storage columns shared by every Child kind.
const (
	FieldParentType = "parent_type"
	FieldParentID   = "parent_id"
)

// New returns an empty record of the given kind.
func New(kind Kind) (Record, error) {
	switch kind {
	case KindLead:
		return &Lead{}, nil
	case KindContact:
		return &Contact{}, nil
	case KindClient:
		return &Client{}, nil
	case KindDeal:
		return &Deal{}, nil
	case KindProject:
		return &Project{}, nil
	case KindTask:
		return &Task{}, nil
	case KindTicket:
		return &Ticket{}, nil
	case KindPartner:
		return &Partner{}, nil
	case KindEngagement:
		return &Engagement{}, nil
	case KindActivity:
		return &Activity{}, nil
	case KindCommunication:
		return &Communication{}, nil
	case KindWorkflow:
		return &Workflow{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Export flattens the readable fields of rec into a map of Go scalars.
func Export(rec Record) map[string]any {
	out := make(map[string]any)
	for _, name := range rec.FieldNames() {
		if v, ok := rec.Field(name); ok {
			out[name] = v.Interface()
		}
	}
	return out
}

// Decode builds a record of kind from its JSON document.
func Decode(kind Kind, doc []byte) (Record, error) {
	rec, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return rec, nil
}

// Clone returns a deep copy of rec.
func Clone(rec Record) (Record, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return Decode(rec.Kind(), doc)
}
