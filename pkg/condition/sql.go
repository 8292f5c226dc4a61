package condition

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go-crm-core/internal/models"

	"github.com/lib/pq"
)

var fieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ToSQL compiles conds into a WHERE fragment over the JSONB `data` column
// of the records table. Placeholders start at $firstArg.
func ToSQL(conds []models.Condition, firstArg int) (string, []any, error) {
	var (
		parts []string
		args  []any
		n     = firstArg
	)
	for _, c := range conds {
		if c.Field == "" {
			continue
		}
		if !fieldName.MatchString(c.Field) {
			return "", nil, fmt.Errorf("invalid field name %q", c.Field)
		}
		op, ok := Normalize(c.Operator)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownOperator, c.Operator)
		}

		text := fmt.Sprintf("data->>'%s'", c.Field)
		if c.Field == "id" {
			text = "id"
		}

		switch op {
		case OpIn:
			list, ok := asList(c.Value)
			if !ok {
				return "", nil, fmt.Errorf("%w: in operator requires a list", ErrInvalidOperand)
			}
			strs := make([]string, len(list))
			for i, v := range list {
				strs[i] = models.ValueOf(v).String()
			}
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", text, n))
			args = append(args, pq.Array(strs))
		case OpContains:
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", text, n))
			args = append(args, "%"+escapeLike(fmt.Sprint(c.Value))+"%")
		default:
			if c.Value == nil {
				if op != OpEq && op != OpNe {
					return "", nil, fmt.Errorf("%w: %s against null", ErrInvalidOperand, op)
				}
				if op == OpEq {
					parts = append(parts, text+" IS NULL")
				} else {
					parts = append(parts, text+" IS NOT NULL")
				}
				continue
			}
			expr, arg := typed(text, c.Value)
			sqlOp := string(op)
			switch op {
			case OpEq:
				sqlOp = "="
			case OpNe:
				sqlOp = "IS DISTINCT FROM"
			}
			parts = append(parts, fmt.Sprintf("%s %s $%d", expr, sqlOp, n))
			args = append(args, arg)
		}
		n++
	}
	return strings.Join(parts, " AND "), args, nil
}

// typed casts the JSON text so the comparison happens in the operand's type.
func typed(text string, v any) (string, any) {
	val := models.ValueOf(v)
	switch val.Type() {
	case models.TypeInt, models.TypeFloat:
		return "(" + text + ")::numeric", val.Interface()
	case models.TypeBool:
		return "(" + text + ")::boolean", val.Interface()
	case models.TypeTime:
		t, _ := val.AsTime()
		return "(" + text + ")::timestamptz", t.UTC().Format(time.RFC3339Nano)
	default:
		return text, val.String()
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
