package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same strings", String("new"), String("new"), true},
		{"different strings", String("new"), String("lost"), false},
		{"int and float", Int(70), Float(70), true},
		{"int and numeric string", Int(70), String("70"), true},
		{"null and empty string", Null(), String(""), true},
		{"null and zero", Null(), Int(0), true},
		{"null and text", Null(), String("x"), false},
		{"bool and truthy string", Bool(true), String("1"), true},
		{"time and date string", Time(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), String("2024-01-02"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestCompare(t *testing.T) {
	cmp, ok := Compare(Int(75), String("70"))
	require.True(t, ok)
	assert.Equal(t, 1, cmp)

	cmp, ok = Compare(Float(1.5), Int(2))
	require.True(t, ok)
	assert.Equal(t, -1, cmp)

	_, ok = Compare(Null(), Int(1))
	assert.False(t, ok)

	_, ok = Compare(Int(1), String("abc"))
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(String("Senior Manager"), String("manager")))
	assert.False(t, Contains(Null(), String("x")))
}

func TestValueOf(t *testing.T) {
	assert.Equal(t, TypeInt, ValueOf(float64(70)).Type())
	assert.Equal(t, TypeFloat, ValueOf(70.5).Type())
	assert.Equal(t, TypeInt, ValueOf(json.Number("12")).Type())
	assert.Equal(t, TypeString, ValueOf(KindLead).Type())
	assert.True(t, ValueOf(nil).IsNull())
}

func TestLeadFields(t *testing.T) {
	lead := &Lead{FirstName: "Ada", Status: LeadStatusNew}

	v, ok := lead.Field("first_name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v.String())

	_, ok = lead.Field("nope")
	assert.False(t, ok)

	require.NoError(t, lead.SetField("status", String("qualified")))
	assert.Equal(t, LeadStatusQualified, lead.Status)

	err := lead.SetField("score", Int(99))
	assert.ErrorIs(t, err, ErrDerivedField)

	err = lead.SetField("unknown", Int(1))
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestTaskFields(t *testing.T) {
	task := &Task{}
	require.NoError(t, task.SetField("due_date", String("2024-03-01")))
	require.NotNil(t, task.DueDate)
	assert.Equal(t, 2024, task.DueDate.Year())

	require.NoError(t, task.SetField("sla_minutes", Int(90)))
	require.NotNil(t, task.SLAMinutes)
	assert.Equal(t, 90, *task.SLAMinutes)

	task.SetParent(Ref{Kind: KindDeal, ID: "d1"})
	v, _ := task.Field(FieldParentType)
	assert.Equal(t, "deal", v.String())
	assert.ErrorIs(t, task.SetField(FieldParentID, String("x")), ErrDerivedField)

	assert.ErrorIs(t, task.SetField("due_date", String("not a date")), ErrInvalidValue)
}

func TestCloneIsDeep(t *testing.T) {
	lead := &Lead{FirstName: "Ada", Tags: []string{"vip"}}
	lead.ID = "l1"

	c, err := Clone(lead)
	require.NoError(t, err)
	cl := c.(*Lead)
	cl.Tags[0] = "changed"

	assert.Equal(t, "vip", lead.Tags[0])
	assert.Equal(t, "l1", cl.ID)
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports(KindLead, CapCommunications))
	assert.False(t, Supports(KindProject, CapCommunications))
	assert.False(t, Supports(KindClient, CapTasks))
	assert.False(t, Supports(KindClient, CapWorkflowEvents))
	assert.False(t, Supports(KindTicket, CapActivities))
}
