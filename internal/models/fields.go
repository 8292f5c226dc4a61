package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// accessor reads and optionally writes one named field of T.
type accessor[T any] struct {
	get func(*T) Value
	set func(*T, Value) error
}

// fieldTable maps field names to accessors. A nil set marks a derived or
// read-only field.
type fieldTable[T any] map[string]accessor[T]

func (ft fieldTable[T]) field(r *T, meta *Meta, name string) (Value, bool) {
	if v, ok := metaField(meta, name); ok {
		return v, true
	}
	a, ok := ft[name]
	if !ok {
		return Null(), false
	}
	return a.get(r), true
}

func (ft fieldTable[T]) setField(r *T, meta *Meta, name string, v Value) error {
	if name == "owner_id" {
		meta.OwnerID = v.String()
		return nil
	}
	if _, ok := metaField(meta, name); ok {
		return fmt.Errorf("%w: %s", ErrDerivedField, name)
	}
	a, ok := ft[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if a.set == nil {
		return fmt.Errorf("%w: %s", ErrDerivedField, name)
	}
	if err := a.set(r, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (ft fieldTable[T]) names() []string {
	out := []string{"id", "owner_id", "created_by", "created_at", "updated_at"}
	keys := make([]string, 0, len(ft))
	for k := range ft {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append(out, keys...)
}

func metaField(m *Meta, name string) (Value, bool) {
	switch name {
	case "id":
		return String(m.ID), true
	case "owner_id":
		return StringOrNull(m.OwnerID), true
	case "created_by":
		return StringOrNull(m.CreatedBy), true
	case "updated_by":
		return StringOrNull(m.UpdatedBy), true
	case "created_at":
		return TimeOrNull(&m.CreatedAt), true
	case "updated_at":
		return TimeOrNull(&m.UpdatedAt), true
	case "deleted_at":
		return TimeOrNull(m.DeletedAt), true
	}
	return Null(), false
}

func text[T any](p func(*T) *string) accessor[T] {
	return accessor[T]{
		get: func(r *T) Value { return StringOrNull(*p(r)) },
		set: func(r *T, v Value) error {
			*p(r) = v.String()
			return nil
		},
	}
}

func readOnlyText[T any](p func(*T) *string) accessor[T] {
	a := text(p)
	a.set = nil
	return a
}

func number[T any](p func(*T) *float64) accessor[T] {
	return accessor[T]{
		get: func(r *T) Value { return Float(*p(r)) },
		set: func(r *T, v Value) error {
			if v.IsNull() {
				*p(r) = 0
				return nil
			}
			f, ok := v.Number()
			if !ok {
				return ErrInvalidValue
			}
			*p(r) = f
			return nil
		},
	}
}

func integer[T any](p func(*T) *int) accessor[T] {
	return accessor[T]{
		get: func(r *T) Value { return Int(int64(*p(r))) },
		set: func(r *T, v Value) error {
			if v.IsNull() {
				*p(r) = 0
				return nil
			}
			f, ok := v.Number()
			if !ok {
				return ErrInvalidValue
			}
			*p(r) = int(math.Round(f))
			return nil
		},
	}
}

func readOnlyInteger[T any](p func(*T) *int) accessor[T] {
	a := integer(p)
	a.set = nil
	return a
}

func optionalInteger[T any](p func(*T) **int) accessor[T] {
	return accessor[T]{
		get: func(r *T) Value {
			if *p(r) == nil {
				return Null()
			}
			return Int(int64(**p(r)))
		},
		set: func(r *T, v Value) error {
			if v.IsNull() {
				*p(r) = nil
				return nil
			}
			f, ok := v.Number()
			if !ok {
				return ErrInvalidValue
			}
			n := int(math.Round(f))
			*p(r) = &n
			return nil
		},
	}
}

func boolean[T any](p func(*T) *bool) accessor[T] {
	return accessor[T]{
		get: func(r *T) Value { return Bool(*p(r)) },
		set: func(r *T, v Value) error {
			*p(r) = v.Truthy()
			return nil
		},
	}
}

func timestamp[T any](p func(*T) **time.Time) accessor[T] {
	return accessor[T]{
		get: func(r *T) Value { return TimeOrNull(*p(r)) },
		set: func(r *T, v Value) error {
			if v.IsNull() || (v.Type() == TypeString && v.String() == "") {
				*p(r) = nil
				return nil
			}
			t, ok := v.AsTime()
			if !ok {
				return ErrInvalidValue
			}
			*p(r) = &t
			return nil
		},
	}
}

func readOnlyTimestamp[T any](p func(*T) **time.Time) accessor[T] {
	a := timestamp(p)
	a.set = nil
	return a
}

// parentFields exposes the parent pair read-only; reparenting goes through
// SetParent or a store Reassign.
func parentFields[T any](kind func(*T) *Kind, id func(*T) *string) fieldTable[T] {
	return fieldTable[T]{
		FieldParentType: {get: func(r *T) Value { return StringOrNull(string(*kind(r))) }},
		FieldParentID:   {get: func(r *T) Value { return StringOrNull(*id(r)) }},
	}
}

func merge[T any](tables ...fieldTable[T]) fieldTable[T] {
	out := fieldTable[T]{}
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}

// Address is the postal block shared by leads, contacts and clients.
type Address struct {
	Street     string `json:"address,omitempty" bson:"address,omitempty"`
	City       string `json:"city,omitempty" bson:"city,omitempty"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
}

func addressFields[T any](p func(*T) *Address) fieldTable[T] {
	return fieldTable[T]{
		"address":     text(func(r *T) *string { return &p(r).Street }),
		"city":        text(func(r *T) *string { return &p(r).City }),
		"state":       text(func(r *T) *string { return &p(r).State }),
		"country":     text(func(r *T) *string { return &p(r).Country }),
		"postal_code": text(func(r *T) *string { return &p(r).PostalCode }),
	}
}
