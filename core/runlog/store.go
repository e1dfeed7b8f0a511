// Package runlog persists one record per batch scheduling run to a pluggable
// backing store.
package runlog

import (
	"context"
	"time"
)

// Entry is one processed (slot, department) pair inside a run.
type Entry struct {
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
	TimeSlotID     string `json:"time_slot_id"`
	SlotStartTime  string `json:"slot_start_time"`
	IndividualID   string `json:"individual_id,omitempty"`
	IndividualName string `json:"individual_name,omitempty"`
	Tier           int    `json:"tier,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Record captures one batch run and its per-pair outcomes.
type Record struct {
	RunID          string    `json:"run_id"`
	Date           string    `json:"date"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Successes      []Entry   `json:"successes"`
	Failures       []Entry   `json:"failures"`
	TotalProcessed int       `json:"total_processed"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start        time.Time
	End          time.Time
	Date         string
	DepartmentID string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

func (r Record) matches(q Query) bool {
	if !q.Start.IsZero() && r.StartedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.StartedAt.After(q.End) {
		return false
	}
	if q.Date != "" && r.Date != q.Date {
		return false
	}
	if q.DepartmentID != "" {
		matched := false
		for _, e := range r.Successes {
			if e.DepartmentID == q.DepartmentID {
				matched = true
				break
			}
		}
		if !matched {
			for _, e := range r.Failures {
				if e.DepartmentID == q.DepartmentID {
					matched = true
					break
				}
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
