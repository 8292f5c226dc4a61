package condition

import (
	"testing"

	"go-crm-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalize(t *testing.T) {
	tests := map[string]Operator{
		"":           OpEq,
		"=":          OpEq,
		"equals":     OpEq,
		"not_equals": OpNe,
		">=":         OpGte,
		"GT":         OpGt,
		"lte":        OpLte,
		"contains":   OpContains,
	}
	for in, want := range tests {
		got, ok := Normalize(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := Normalize("between")
	assert.False(t, ok)
}

func TestEvaluate(t *testing.T) {
	lead := &models.Lead{Status: models.LeadStatusNew, Score: 75, JobTitle: "Sales Manager"}

	tests := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"equality", models.Condition{Field: "status", Operator: "==", Value: "new"}, true},
		{"alias equality", models.Condition{Field: "status", Operator: "=", Value: "new"}, true},
		{"inequality", models.Condition{Field: "status", Operator: "!=", Value: "converted"}, true},
		{"greater than", models.Condition{Field: "score", Operator: ">", Value: 70.0}, true},
		{"greater or equal boundary", models.Condition{Field: "score", Operator: ">=", Value: 75}, true},
		{"less than", models.Condition{Field: "score", Operator: "<", Value: 70}, false},
		{"contains case-insensitive", models.Condition{Field: "job_title", Operator: "contains", Value: "MANAGER"}, true},
		{"in list", models.Condition{Field: "status", Operator: "in", Value: []any{"new", "contacted"}}, true},
		{"in bson array", models.Condition{Field: "status", Operator: "in", Value: primitive.A{"lost"}}, false},
		{"empty field is vacuous", models.Condition{Operator: "==", Value: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, lead)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateAnomalies(t *testing.T) {
	lead := &models.Lead{}

	ok, err := Evaluate(models.Condition{Field: "status", Operator: "between", Value: 1}, lead)
	assert.False(t, ok)
	var anomaly *Anomaly
	require.ErrorAs(t, err, &anomaly)
	assert.ErrorIs(t, err, ErrUnknownOperator)

	ok, err = Evaluate(models.Condition{Field: "shoe_size", Operator: "==", Value: 1}, lead)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestMatchIsConjunctive(t *testing.T) {
	lead := &models.Lead{Status: models.LeadStatusNew, Score: 75}
	conds := []models.Condition{
		{Field: "score", Operator: ">", Value: 70},
		{Field: "status", Operator: "==", Value: "new"},
	}

	ok, err := Match(conds, lead)
	require.NoError(t, err)
	assert.True(t, ok)

	lead.Status = models.LeadStatusContacted
	ok, err = Match(conds, lead)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Match(nil, lead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]models.Condition{{Field: "score", Operator: ">=", Value: 70}}))
	assert.ErrorIs(t, Validate([]models.Condition{{Field: "score", Operator: "~", Value: 70}}), ErrUnknownOperator)
	assert.ErrorIs(t, Validate([]models.Condition{{Field: "status", Operator: "in", Value: "new"}}), ErrInvalidOperand)
}

func TestToBSON(t *testing.T) {
	filter, err := ToBSON(ChildOf(models.Ref{Kind: models.KindLead, ID: "l1"}))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$and": []bson.M{
		{"parent_type": bson.M{"$eq": "lead"}},
		{"parent_id": bson.M{"$eq": "l1"}},
	}}, filter)

	filter, err = ToBSON([]models.Condition{Eq("id", "x")})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": bson.M{"$eq": "x"}}, filter)

	_, err = ToBSON([]models.Condition{{Field: "a", Operator: "??"}})
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestToSQL(t *testing.T) {
	where, args, err := ToSQL([]models.Condition{
		Eq("event_type", "lead.updated"),
		Eq("is_active", true),
		Ne("status", "completed"),
		{Field: "score", Operator: ">=", Value: 70},
		{Field: "title", Operator: "contains", Value: "50%"},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t,
		"data->>'event_type' = $2 AND (data->>'is_active')::boolean = $3 AND "+
			"data->>'status' IS DISTINCT FROM $4 AND (data->>'score')::numeric >= $5 AND "+
			"data->>'title' ILIKE $6",
		where)
	assert.Equal(t, []any{"lead.updated", true, "completed", int64(70), `%50\%%`}, args)

	_, _, err = ToSQL([]models.Condition{Eq("x'; drop table records; --", 1)}, 1)
	assert.Error(t, err)
}
