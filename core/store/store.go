// Package store defines the persistence contract the scheduling core reads
// from and writes to. Implementations live under infra/store; the core never
// caches results across calls.
package store

import (
	"context"
	"errors"

	"github.com/4Lajf/grafikonator-6000/core/model"
)

// Sentinel errors surfaced by store implementations. Callers match them with
// errors.Is; errs.Classify maps them to their structured kinds.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("store: duplicate resource")
	// ErrForbidden is returned when the store denies the operation.
	ErrForbidden = errors.New("store: forbidden")
	// ErrUnauthenticated is returned when the store rejects the caller's
	// credentials.
	ErrUnauthenticated = errors.New("store: unauthenticated")
)

// Reader exposes the read side of the scheduling contract. List results have
// a deterministic order: individuals by name, slots by (date, start_time),
// availability windows by (start_time, id).
type Reader interface {
	// TimeSlot loads a single time slot by id, ErrNotFound if absent.
	TimeSlot(ctx context.Context, id string) (model.TimeSlot, error)
	// TimeSlotsForDate lists the active time slots on a date.
	TimeSlotsForDate(ctx context.Context, date string) ([]model.TimeSlot, error)
	// Departments lists all departments.
	Departments(ctx context.Context) ([]model.Department, error)
	// Individuals lists all individuals. Filtering happens in the core.
	Individuals(ctx context.Context) ([]model.Individual, error)
	// AssignedIndividuals returns the ids of individuals holding a schedule
	// for the given time slot, across all departments.
	AssignedIndividuals(ctx context.Context, timeSlotID string) ([]string, error)
	// SchedulesForDate lists enriched schedules whose time slot falls on the
	// given date.
	SchedulesForDate(ctx context.Context, date string) ([]model.ScheduleDetail, error)
	// AvailabilityForDate lists the availability windows of one individual
	// on a date.
	AvailabilityForDate(ctx context.Context, individualID, date string) ([]model.AvailabilityWindow, error)
}

// Writer exposes the single write the scheduling core performs.
type Writer interface {
	// InsertSchedule persists a new schedule and returns it enriched with
	// display fields. Implementations with a uniqueness constraint on
	// (department_id, time_slot_id) surface conflicts as ErrDuplicate.
	InsertSchedule(ctx context.Context, schedule model.Schedule) (model.ScheduleDetail, error)
}

// Store combines the read and write contracts.
type Store interface {
	Reader
	Writer
}

// SlotUpserter is implemented by stores that accept bulk generated time
// slots. Upserts are keyed on (date, start_time).
type SlotUpserter interface {
	UpsertTimeSlots(ctx context.Context, slots []model.TimeSlot) (int, error)
}
