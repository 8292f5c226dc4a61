package scoring

import (
	"math"
	"strings"

	"go-crm-core/internal/models"
)

type weighted struct {
	keyword string
	points  int
}

// Checked in order; the first keyword found in the title wins.
var titleWeights = []weighted{
	{"ceo", 30},
	{"founder", 30},
	{"owner", 30},
	{"director", 25},
	{"vp", 25},
	{"manager", 15},
}

var publicDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
	"icloud.com":  true,
}

var sourceWeights = map[string]int{
	"Referral": 20,
	"Webinar":  15,
	"Website":  10,
	"Direct":   5,
}

var statusWeights = map[models.LeadStatus]int{
	models.LeadStatusContacted: 10,
	models.LeadStatusQualified: 30,
	models.LeadStatusConverted: 50,
}

const maxScore = 100

// LeadScore computes the lead score from its profile and its engagements.
// It is pure: the same inputs always give the same score.
func LeadScore(lead *models.Lead, engagements []*models.Engagement) int {
	score := 0

	if title := strings.ToLower(lead.JobTitle); title != "" {
		for _, w := range titleWeights {
			if strings.Contains(title, w.keyword) {
				score += w.points
				break
			}
		}
	}

	if domain := emailDomain(lead.Email); domain != "" && !publicDomains[domain] {
		score += 15
	}

	if lead.CompanyName != "" {
		score += 10
	}
	if lead.Phone != "" {
		score += 5
	}
	if lead.Source != "" {
		score += 5
	}

	score += sourceWeights[lead.Source]
	score += statusWeights[lead.Status]
	score += behavioural(engagements)

	return clamp(score)
}

func behavioural(engagements []*models.Engagement) int {
	if len(engagements) == 0 {
		return 0
	}
	var total float64
	for _, e := range engagements {
		total += e.Score
	}
	avg := total / float64(len(engagements))
	return min(len(engagements)*5, 50) + int(math.Round(avg*0.5))
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func clamp(score int) int {
	return max(0, min(score, maxScore))
}
