// Package events defines the domain events published on the internal bus
// during scheduling.
package events

import (
	"time"

	"github.com/4Lajf/grafikonator-6000/core/model"
)

// AssignmentEvent is published after a schedule is committed.
type AssignmentEvent struct {
	RunID    string
	Schedule model.ScheduleDetail
	Tier     model.Tier
	Time     time.Time
}

// AssignmentFailedEvent is published when a (slot, department) pair could
// not be filled.
type AssignmentFailedEvent struct {
	RunID        string
	DepartmentID string
	TimeSlotID   string
	Reason       string
	Time         time.Time
}

// BatchCompletedEvent is published once per batch run after the last pair
// was processed.
type BatchCompletedEvent struct {
	RunID          string
	Date           string
	Successes      int
	Failures       int
	TotalProcessed int
	Duration       time.Duration
}
