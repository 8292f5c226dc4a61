package condition

import (
	"errors"
	"fmt"

	"go-crm-core/internal/models"
)

var (
	ErrUnknownOperator = errors.New("unknown operator")
	ErrMissingField    = errors.New("field not present on record")
	ErrInvalidOperand  = errors.New("invalid operand")
)

// Anomaly explains why a condition could not be evaluated. Callers treat
// it as "not satisfied" and log it.
type Anomaly struct {
	Field    string
	Operator string
	Err      error
}

func (a *Anomaly) Error() string {
	return fmt.Sprintf("condition %s %s: %v", a.Field, a.Operator, a.Err)
}

func (a *Anomaly) Unwrap() error { return a.Err }

// FieldSource is anything that can be read by field name.
type FieldSource interface {
	Field(name string) (models.Value, bool)
}

// Evaluate tests one condition against src. A condition with an empty
// field is vacuously true.
func Evaluate(c models.Condition, src FieldSource) (bool, error) {
	if c.Field == "" {
		return true, nil
	}
	op, ok := Normalize(c.Operator)
	if !ok {
		return false, &Anomaly{Field: c.Field, Operator: c.Operator, Err: ErrUnknownOperator}
	}
	actual, ok := src.Field(c.Field)
	if !ok {
		return false, &Anomaly{Field: c.Field, Operator: c.Operator, Err: ErrMissingField}
	}

	switch op {
	case OpEq:
		return models.Equal(actual, models.ValueOf(c.Value)), nil
	case OpNe:
		return !models.Equal(actual, models.ValueOf(c.Value)), nil
	case OpGt, OpLt, OpGte, OpLte:
		cmp, ok := models.Compare(actual, models.ValueOf(c.Value))
		if !ok {
			return false, nil
		}
		switch op {
		case OpGt:
			return cmp > 0, nil
		case OpLt:
			return cmp < 0, nil
		case OpGte:
			return cmp >= 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpContains:
		return models.Contains(actual, models.ValueOf(c.Value)), nil
	case OpIn:
		list, ok := asList(c.Value)
		if !ok {
			return false, &Anomaly{Field: c.Field, Operator: c.Operator, Err: ErrInvalidOperand}
		}
		for _, candidate := range list {
			if models.Equal(actual, models.ValueOf(candidate)) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, &Anomaly{Field: c.Field, Operator: c.Operator, Err: ErrUnknownOperator}
}

// Match ANDs conds and stops at the first unsatisfied one. The returned
// error is the anomaly that stopped evaluation, if any.
func Match(conds []models.Condition, src FieldSource) (bool, error) {
	for _, c := range conds {
		ok, err := Evaluate(c, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Validate checks that every operator is known and every `in` operand is a list.
func Validate(conds []models.Condition) error {
	var errs []error
	for i, c := range conds {
		op, ok := Normalize(c.Operator)
		if !ok {
			errs = append(errs, fmt.Errorf("condition %d: %w %q", i, ErrUnknownOperator, c.Operator))
			continue
		}
		if op == OpIn {
			if _, ok := asList(c.Value); !ok {
				errs = append(errs, fmt.Errorf("condition %d: %w: in expects a list", i, ErrInvalidOperand))
			}
		}
	}
	return errors.Join(errs...)
}
