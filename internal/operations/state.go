package operations

import (
	"time"

	"bankscli/internal/dataprocessing"
	"bankscli/internal/storage"
)

// RunStatus represents the overall status of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState carries the data handed from one step to the next.
// It is owned by a single run and never shared between goroutines.
type RunState struct {
	RunID       string
	Rates       dataprocessing.RateMap
	Extracted   *dataprocessing.Table
	Transformed *dataprocessing.Table
	Store       *storage.Store
	Query       string
	Result      *storage.ResultSet
}

// RunReport summarizes a finished run
type RunReport struct {
	RunID         string             `json:"run_id"`
	Status        RunStatus          `json:"status"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	Steps         []*StepState       `json:"steps"`
	RowsExtracted int                `json:"rows_extracted"`
	RowsStored    int                `json:"rows_stored"`
	Query         string             `json:"query,omitempty"`
	Result        *storage.ResultSet `json:"result,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// newRunReport creates a report with every step pending
func newRunReport(runID string, steps []Step) *RunReport {
	report := &RunReport{
		RunID:     runID,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Steps:     make([]*StepState, len(steps)),
	}
	for i, step := range steps {
		report.Steps[i] = NewStepState(step.ID(), step.Name())
	}
	return report
}

// Step returns the state of the step with the given ID
func (r *RunReport) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	if r.EndTime == nil {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

func (r *RunReport) start() {
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

func (r *RunReport) finish(status RunStatus, err error) {
	now := time.Now()
	r.EndTime = &now
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}
