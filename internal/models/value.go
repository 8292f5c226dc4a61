package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValueType tags the dynamic type carried by a Value.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeTime
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a field value read from or written to a record by name. Rule
// conditions, workflow actions and store filters all speak Value so that
// no component needs reflection over the concrete entity structs.
type Value struct {
	typ ValueType
	s   string
	i   int64
	f   float64
	b   bool
	t   time.Time
}

func Null() Value               { return Value{} }
func String(s string) Value     { return Value{typ: TypeString, s: s} }
func Int(i int64) Value         { return Value{typ: TypeInt, i: i} }
func Float(f float64) Value     { return Value{typ: TypeFloat, f: f} }
func Bool(b bool) Value         { return Value{typ: TypeBool, b: b} }
func Time(t time.Time) Value    { return Value{typ: TypeTime, t: t} }
func (v Value) Type() ValueType { return v.typ }
func (v Value) IsNull() bool    { return v.typ == TypeNull }

// StringOrNull maps the empty string to Null, the way optional text columns behave.
func StringOrNull(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}

func TimeOrNull(t *time.Time) Value {
	if t == nil || t.IsZero() {
		return Null()
	}
	return Time(*t)
}

// ValueOf converts a decoded JSON/BSON scalar into a Value. Unsupported
// types (maps, slices) are rendered as their JSON text.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Float(float64(x))
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Int(int64(x))
		}
		return Float(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		f, _ := x.Float64()
		return Float(f)
	case time.Time:
		return Time(x)
	case *time.Time:
		return TimeOrNull(x)
	case primitive.DateTime:
		return Time(x.Time())
	case fmt.Stringer:
		return String(x.String())
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return String(fmt.Sprint(x))
		}
		return String(string(b))
	}
}

// Interface returns the Go scalar held by v, nil for Null.
func (v Value) Interface() any {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeBool:
		return v.b
	case TypeTime:
		return v.t
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case TypeBool:
		if v.b {
			return "true"
		}
		return "false"
	case TypeTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Number reports v as a float when it is numeric or a numeric string.
func (v Value) Number() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.i), true
	case TypeFloat:
		return v.f, true
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsTime reports v as a time when it holds one or a parsable date string.
func (v Value) AsTime() (time.Time, bool) {
	switch v.typ {
	case TypeTime:
		return v.t, true
	case TypeString:
		return parseTime(v.s)
	default:
		return time.Time{}, false
	}
}

func (v Value) Truthy() bool {
	switch v.typ {
	case TypeString:
		return v.s != "" && v.s != "0" && !strings.EqualFold(v.s, "false")
	case TypeInt:
		return v.i != 0
	case TypeFloat:
		return v.f != 0
	case TypeBool:
		return v.b
	case TypeTime:
		return !v.t.IsZero()
	default:
		return false
	}
}

func (v Value) isZero() bool {
	switch v.typ {
	case TypeNull:
		return true
	case TypeString:
		return v.s == ""
	default:
		return !v.Truthy()
	}
}

// Equal is loose equality: numbers compare numerically across int, float
// and numeric strings, times compare as instants, booleans by truthiness,
// and null equals any zero value.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.isZero() && b.isZero()
	}
	if a.typ == TypeBool || b.typ == TypeBool {
		return a.Truthy() == b.Truthy()
	}
	if a.typ == TypeTime || b.typ == TypeTime {
		at, aok := a.AsTime()
		bt, bok := b.AsTime()
		return aok && bok && at.Equal(bt)
	}
	if an, aok := a.Number(); aok {
		if bn, bok := b.Number(); bok {
			return an == bn
		}
	}
	return a.String() == b.String()
}

// Compare orders a and b. ok is false when the pair is not ordered (a
// null operand, or a number against a non-numeric string).
func Compare(a, b Value) (cmp int, ok bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	if a.typ == TypeTime || b.typ == TypeTime {
		at, aok := a.AsTime()
		bt, bok := b.AsTime()
		if !aok || !bok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	an, aok := a.Number()
	bn, bok := b.Number()
	switch {
	case aok && bok:
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	case aok != bok:
		return 0, false
	}
	return strings.Compare(a.String(), b.String()), true
}

// Contains is a case-insensitive substring test of needle in haystack.
func Contains(haystack, needle Value) bool {
	if haystack.IsNull() {
		return false
	}
	return strings.Contains(strings.ToLower(haystack.String()), strings.ToLower(needle.String()))
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
