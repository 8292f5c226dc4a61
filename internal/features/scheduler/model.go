package scheduler

import "time"

const (
	JobSweepTasks   = "sweep_tasks"
	JobRescoreLeads = "rescore_leads"

	// chunkSize bounds how many records one transaction touches.
	chunkSize = 100
)

// SweepReport summarises one pass over open tasks.
type SweepReport struct {
	Scanned   int `json:"scanned"`
	Rescored  int `json:"rescored"`
	Escalated int `json:"escalated"`
}

// RescoreReport summarises one pass over leads.
type RescoreReport struct {
	Scanned  int `json:"scanned"`
	Rescored int `json:"rescored"`
}

// JobRun records the last execution of a scheduled job.
type JobRun struct {
	Job       string    `json:"job"`
	Schedule  string    `json:"schedule"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
	Next      time.Time `json:"next_run,omitempty"`
}
