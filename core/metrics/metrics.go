// Package metrics defines the observability sink contract for scheduling
// outcomes. Implementations live under infra/metrics.
package metrics

import (
	"time"

	"github.com/4Lajf/grafikonator-6000/core/model"
)

// AssignmentResult represents one processed (slot, department) pair.
type AssignmentResult struct {
	RunID          string
	Date           string
	DepartmentID   string
	DepartmentName string
	TimeSlotID     string
	SlotStartTime  string
	IndividualID   string
	Tier           model.Tier
	Assigned       bool
	Reason         string
	Time           time.Time
}

// BatchRunResult aggregates one batch run.
type BatchRunResult struct {
	RunID          string
	Date           string
	Successes      int
	Failures       int
	TotalProcessed int
	Duration       time.Duration
	Time           time.Time
}

// Sink records assignment outcomes for observability purposes.
type Sink interface {
	RecordAssignments(results []AssignmentResult) error
}

// BatchRunRecorder records aggregated batch runs. Sinks implement it when
// the backend has a sensible representation for run-level data.
type BatchRunRecorder interface {
	RecordBatchRun(res BatchRunResult) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordAssignments([]AssignmentResult) error { return nil }
func (NopSink) RecordBatchRun(BatchRunResult) error        { return nil }
