package scoring

import (
	"math"

	"go-crm-core/internal/models"
)

// ProjectProgress is the rounded percentage of completed tasks, 0 when
// there are none.
func ProjectProgress(tasks []*models.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusCompleted {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(tasks)) * 100))
}
