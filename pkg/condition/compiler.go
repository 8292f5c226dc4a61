package condition

import (
	"fmt"
	"regexp"

	"go-crm-core/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToBSON compiles conds into a MongoDB filter. Records are stored with
// their JSON field names, except the id which lives in _id.
func ToBSON(conds []models.Condition) (bson.M, error) {
	if len(conds) == 0 {
		return bson.M{}, nil
	}

	var clauses []bson.M
	for _, c := range conds {
		if c.Field == "" {
			continue
		}
		clause, err := compileRule(c)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	switch len(clauses) {
	case 0:
		return bson.M{}, nil
	case 1:
		return clauses[0], nil
	}
	return bson.M{"$and": clauses}, nil
}

func compileRule(c models.Condition) (bson.M, error) {
	op, ok := Normalize(c.Operator)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, c.Operator)
	}

	field := c.Field
	if field == "id" {
		field = "_id"
	}
	val := c.Value

	switch op {
	case OpEq:
		return bson.M{field: bson.M{"$eq": val}}, nil
	case OpNe:
		return bson.M{field: bson.M{"$ne": val}}, nil
	case OpGt:
		return bson.M{field: bson.M{"$gt": val}}, nil
	case OpLt:
		return bson.M{field: bson.M{"$lt": val}}, nil
	case OpGte:
		return bson.M{field: bson.M{"$gte": val}}, nil
	case OpLte:
		return bson.M{field: bson.M{"$lte": val}}, nil
	case OpIn:
		list, ok := asList(val)
		if !ok {
			return nil, fmt.Errorf("%w: in operator requires a list", ErrInvalidOperand)
		}
		return bson.M{field: bson.M{"$in": list}}, nil
	case OpContains:
		if strVal, ok := val.(string); ok {
			return bson.M{field: bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(strVal), Options: "i"}}}, nil
		}
		return nil, fmt.Errorf("%w: contains operator requires string value", ErrInvalidOperand)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, c.Operator)
	}
}
