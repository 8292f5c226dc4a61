package condition

import (
	"strings"

	"go-crm-core/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Operator string

const (
	OpEq       Operator = "=="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpGte      Operator = ">="
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

var aliases = map[string]Operator{
	"==":         OpEq,
	"=":          OpEq,
	"eq":         OpEq,
	"equals":     OpEq,
	"!=":         OpNe,
	"<>":         OpNe,
	"ne":         OpNe,
	"not_equals": OpNe,
	">":          OpGt,
	"gt":         OpGt,
	"<":          OpLt,
	"lt":         OpLt,
	">=":         OpGte,
	"gte":        OpGte,
	"<=":         OpLte,
	"lte":        OpLte,
	"contains":   OpContains,
	"in":         OpIn,
}

// Normalize maps an authored operator onto its canonical form. An empty
// operator means equality.
func Normalize(op string) (Operator, bool) {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "" {
		return OpEq, true
	}
	canonical, ok := aliases[op]
	return canonical, ok
}

// Eq and friends build conditions for store queries.
func Eq(field string, v any) models.Condition {
	return models.Condition{Field: field, Operator: string(OpEq), Value: v}
}

func Ne(field string, v any) models.Condition {
	return models.Condition{Field: field, Operator: string(OpNe), Value: v}
}

func In(field string, vs ...any) models.Condition {
	return models.Condition{Field: field, Operator: string(OpIn), Value: vs}
}

// ChildOf matches records whose polymorphic parent is ref.
func ChildOf(ref models.Ref) []models.Condition {
	return []models.Condition{
		Eq(models.FieldParentType, string(ref.Kind)),
		Eq(models.FieldParentID, ref.ID),
	}
}

// asList unwraps the value of an `in` condition.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case primitive.A:
		return []any(x), true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
