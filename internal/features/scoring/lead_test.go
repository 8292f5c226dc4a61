package scoring

import (
	"testing"

	"go-crm-core/internal/models"

	"github.com/stretchr/testify/assert"
)

func engagements(scores ...float64) []*models.Engagement {
	out := make([]*models.Engagement, len(scores))
	for i, s := range scores {
		out[i] = &models.Engagement{Score: s}
	}
	return out
}

func TestLeadScoreComponents(t *testing.T) {
	tests := []struct {
		name string
		lead models.Lead
		engs []*models.Engagement
		want int
	}{
		{"empty lead", models.Lead{}, nil, 0},
		{"title first match wins", models.Lead{JobTitle: "VP and Founder"}, nil, 30},
		{"title case-insensitive", models.Lead{JobTitle: "sales manager"}, nil, 15},
		{"public email domain", models.Lead{Email: "x@Gmail.com"}, nil, 0},
		{"corporate email domain", models.Lead{Email: "x@acme.io"}, nil, 15},
		{"email without domain", models.Lead{Email: "nobody"}, nil, 0},
		{"completeness", models.Lead{CompanyName: "Acme", Phone: "1"}, nil, 15},
		{"known source", models.Lead{Source: "Webinar"}, nil, 20},
		{"source is exact match", models.Lead{Source: "referral"}, nil, 5},
		{"status contacted", models.Lead{Status: models.LeadStatusContacted}, nil, 10},
		{"status new adds nothing", models.Lead{Status: models.LeadStatusNew}, nil, 0},
		{"engagements", models.Lead{}, engagements(10, 20, 31), 15 + 10},
		{"engagement count caps at 50", models.Lead{}, engagements(make([]float64, 12)...), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := tt.lead
			assert.Equal(t, tt.want, LeadScore(&lead, tt.engs))
		})
	}
}

func TestLeadScoreEndToEndExample(t *testing.T) {
	lead := &models.Lead{
		JobTitle:    "CEO",
		Email:       "a@bigco.com",
		CompanyName: "BigCo",
		Phone:       "555",
		Source:      "Referral",
		Status:      models.LeadStatusQualified,
	}
	// 30+15+20+20+30+10+43 = 198, clamped.
	assert.Equal(t, 100, LeadScore(lead, engagements(80, 90)))
}

func TestLeadScoreClampsMaximalInput(t *testing.T) {
	scores := make([]float64, 20)
	for i := range scores {
		scores[i] = 100
	}
	lead := &models.Lead{
		JobTitle:    "CEO",
		Email:       "ceo@corp.example",
		CompanyName: "Corp",
		Phone:       "1",
		Source:      "Referral",
		Status:      models.LeadStatusConverted,
	}
	assert.Equal(t, 100, LeadScore(lead, engagements(scores...)))
}

func TestLeadScoreDeterministic(t *testing.T) {
	lead := &models.Lead{JobTitle: "Director", Email: "d@acme.com", Source: "Website"}
	engs := engagements(40, 55)
	first := LeadScore(lead, engs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, LeadScore(lead, engs))
	}
}

func TestProjectProgress(t *testing.T) {
	assert.Equal(t, 0, ProjectProgress(nil))
	tasks := []*models.Task{
		{Status: models.TaskStatusCompleted},
		{Status: models.TaskStatusPending},
		{Status: models.TaskStatusCompleted},
	}
	assert.Equal(t, 67, ProjectProgress(tasks))
}
