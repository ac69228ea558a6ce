package history

import "time"

// Status is the outcome of one processing run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
)

// Run is one row of the history log.
type Run struct {
	ID               string
	Recording        string
	AudioPath        string
	Status           Status
	Segments         int
	SpeakerCount     int
	Speakers         []string
	TotalSeconds     float64
	WhisperModel     string
	DiarizationModel string
	Artifacts        []string
	ErrorMessage     string
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Elapsed returns the wall-clock processing time.
func (r Run) Elapsed() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
