package scoring

import (
	"time"

	"go-crm-core/internal/models"
)

var priorityBase = map[models.Priority]int{
	models.PriorityHigh:   40,
	models.PriorityMedium: 20,
	models.PriorityLow:    5,
}

// TaskPriorityScore ranks a task by priority, deadline and SLA proximity
// and parent type, as seen at now.
func TaskPriorityScore(task *models.Task, now time.Time) int {
	score := priorityBase[task.Priority]

	if task.DueDate != nil {
		// whole days, truncated toward zero
		days := int(task.DueDate.Sub(now).Hours() / 24)
		switch {
		case days < 0:
			score += 50
		case days <= 1:
			score += 30
		case days <= 3:
			score += 15
		}
	}

	if breached, remaining := slaRemaining(task, now); remaining != nil {
		switch {
		case breached:
			score += 40
		case *remaining < 30:
			score += 25
		}
	}

	if task.ParentType == models.KindDeal {
		score += 15
	}

	return min(score, maxScore)
}

// slaRemaining returns whole minutes left before the SLA deadline, nil when
// the task carries no SLA.
func slaRemaining(task *models.Task, now time.Time) (breached bool, remaining *int) {
	if task.SLAMinutes == nil || *task.SLAMinutes == 0 || task.CreatedAt.IsZero() {
		return false, nil
	}
	deadline := task.CreatedAt.Add(time.Duration(*task.SLAMinutes) * time.Minute)
	minutes := int(deadline.Sub(now).Minutes())
	return minutes < 0, &minutes
}

// SLABreached reports whether the task's SLA deadline has passed.
func SLABreached(task *models.Task, now time.Time) bool {
	breached, _ := slaRemaining(task, now)
	return breached
}

// Suggestion is a next step proposed for an open task.
type Suggestion struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

const (
	SuggestEscalate = "escalate"
	SuggestCall     = "call"
)

// SuggestNextActions proposes follow-ups for a task that is not completed.
func SuggestNextActions(task *models.Task) []Suggestion {
	if task.Status == models.TaskStatusCompleted {
		return nil
	}
	var out []Suggestion
	if task.Priority == models.PriorityHigh && task.EscalatedAt == nil {
		out = append(out, Suggestion{
			Type:        SuggestEscalate,
			Label:       "Escalate to Manager",
			Description: "This high priority task is nearing SLA breach.",
		})
	}
	if task.ParentType == models.KindLead {
		out = append(out, Suggestion{
			Type:        SuggestCall,
			Label:       "Schedule Discovery Call",
			Description: "Suggested follow-up for new lead.",
		})
	}
	return out
}

// SuggestionTypes flattens suggestions to their type names.
func SuggestionTypes(s []Suggestion) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Type
	}
	return out
}
