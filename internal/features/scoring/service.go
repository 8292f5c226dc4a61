package scoring

import (
	"slices"
	"time"

	"go-crm-core/internal/models"
)

// ScoringService applies the scoring rules to records and reports whether
// a derived field changed.
type ScoringService interface {
	Now() time.Time
	ApplyLeadScore(lead *models.Lead, engagements []*models.Engagement) bool
	ApplyTaskScore(task *models.Task) bool
	ApplyTaskSuggestions(task *models.Task) bool
	ApplyProjectProgress(project *models.Project, tasks []*models.Task) bool
}

type ScoringServiceImpl struct {
	clock func() time.Time
}

func NewScoringService() ScoringService {
	return &ScoringServiceImpl{clock: time.Now}
}

// NewScoringServiceWithClock pins "now" for deterministic scoring.
func NewScoringServiceWithClock(clock func() time.Time) ScoringService {
	return &ScoringServiceImpl{clock: clock}
}

func (s *ScoringServiceImpl) Now() time.Time { return s.clock().UTC() }

func (s *ScoringServiceImpl) ApplyLeadScore(lead *models.Lead, engagements []*models.Engagement) bool {
	score := LeadScore(lead, engagements)
	changed := lead.Score != score
	lead.Score = score
	return changed
}

func (s *ScoringServiceImpl) ApplyTaskScore(task *models.Task) bool {
	score := TaskPriorityScore(task, s.Now())
	changed := task.PriorityScore != score
	task.PriorityScore = score
	return changed
}

func (s *ScoringServiceImpl) ApplyTaskSuggestions(task *models.Task) bool {
	types := SuggestionTypes(SuggestNextActions(task))
	changed := !slices.Equal(task.SuggestedActions, types)
	task.SuggestedActions = types
	return changed
}

func (s *ScoringServiceImpl) ApplyProjectProgress(project *models.Project, tasks []*models.Task) bool {
	progress := ProjectProgress(tasks)
	changed := project.Progress != progress
	project.Progress = progress
	return changed
}
