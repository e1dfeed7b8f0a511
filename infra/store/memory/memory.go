// Package memory provides an in-memory store implementation used by tests
// and local development. Results are returned in a deterministic order so
// the engine's load-order tie-breaks are stable across runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/store"
)

// Store holds all entities in maps guarded by one RWMutex.
type Store struct {
	mu           sync.RWMutex
	individuals  map[string]model.Individual
	departments  map[string]model.Department
	slots        map[string]model.TimeSlot
	availability map[string]model.AvailabilityWindow
	schedules    map[string]model.Schedule
	seq          int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		individuals:  make(map[string]model.Individual),
		departments:  make(map[string]model.Department),
		slots:        make(map[string]model.TimeSlot),
		availability: make(map[string]model.AvailabilityWindow),
		schedules:    make(map[string]model.Schedule),
	}
}

// --- seeding helpers (not part of the core contract) ---

// AddIndividual stores an individual, assigning an id when empty.
func (s *Store) AddIndividual(ind model.Individual) model.Individual {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ind.ID == "" {
		ind.ID = uuid.NewString()
	}
	s.seq++
	if ind.CreatedAt.IsZero() {
		ind.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	}
	s.individuals[ind.ID] = ind
	return ind
}

// AddDepartment stores a department, assigning an id when empty.
func (s *Store) AddDepartment(dept model.Department) model.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	s.departments[dept.ID] = dept
	return dept
}

// AddTimeSlot stores a time slot, assigning an id when empty.
func (s *Store) AddTimeSlot(slot model.TimeSlot) model.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	s.slots[slot.ID] = slot
	return slot
}

// AddAvailability stores an availability window, assigning an id when empty.
// The window order seen by readers follows (start_time, id).
func (s *Store) AddAvailability(w model.AvailabilityWindow) model.AvailabilityWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		s.seq++
		w.ID = fmt.Sprintf("avail-%04d", s.seq)
	}
	s.availability[w.ID] = w
	return w
}

// AddSchedule stores a pre-existing schedule without uniqueness checks.
func (s *Store) AddSchedule(sched model.Schedule) model.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	s.schedules[sched.ID] = sched
	return sched
}

// --- store.Reader ---

// TimeSlot retrieves a time slot by id.
func (s *Store) TimeSlot(_ context.Context, id string) (model.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[id]
	if !ok {
		return model.TimeSlot{}, fmt.Errorf("time slot %s: %w", id, store.ErrNotFound)
	}
	return slot, nil
}

// TimeSlotsForDate lists active slots on the date ordered by start time.
func (s *Store) TimeSlotsForDate(_ context.Context, date string) ([]model.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := make([]model.TimeSlot, 0)
	for _, slot := range s.slots {
		if slot.Date == date && slot.Active {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime == slots[j].StartTime {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

// Departments lists all departments ordered by name.
func (s *Store) Departments(_ context.Context) ([]model.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	departments := make([]model.Department, 0, len(s.departments))
	for _, dept := range s.departments {
		departments = append(departments, dept)
	}
	sort.Slice(departments, func(i, j int) bool {
		if departments[i].Name == departments[j].Name {
			return departments[i].ID < departments[j].ID
		}
		return departments[i].Name < departments[j].Name
	})
	return departments, nil
}

// Individuals lists all individuals ordered by name.
func (s *Store) Individuals(_ context.Context) ([]model.Individual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	individuals := make([]model.Individual, 0, len(s.individuals))
	for _, ind := range s.individuals {
		individuals = append(individuals, ind)
	}
	sort.Slice(individuals, func(i, j int) bool {
		if individuals[i].Name == individuals[j].Name {
			return individuals[i].ID < individuals[j].ID
		}
		return individuals[i].Name < individuals[j].Name
	})
	return individuals, nil
}

// AssignedIndividuals returns the ids of individuals scheduled for the slot,
// across all departments.
func (s *Store) AssignedIndividuals(_ context.Context, timeSlotID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, sched := range s.schedules {
		if sched.TimeSlotID != timeSlotID {
			continue
		}
		if _, ok := seen[sched.IndividualID]; ok {
			continue
		}
		seen[sched.IndividualID] = struct{}{}
		ids = append(ids, sched.IndividualID)
	}
	sort.Strings(ids)
	return ids, nil
}

// SchedulesForDate lists enriched schedules whose slot falls on the date,
// ordered by slot start time.
func (s *Store) SchedulesForDate(_ context.Context, date string) ([]model.ScheduleDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	details := make([]model.ScheduleDetail, 0)
	for _, sched := range s.schedules {
		slot, ok := s.slots[sched.TimeSlotID]
		if !ok || slot.Date != date {
			continue
		}
		details = append(details, s.enrichLocked(sched))
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].SlotStartTime == details[j].SlotStartTime {
			return details[i].ID < details[j].ID
		}
		return details[i].SlotStartTime < details[j].SlotStartTime
	})
	return details, nil
}

// AvailabilityForDate lists the individual's windows on the date ordered by
// (start_time, id).
func (s *Store) AvailabilityForDate(_ context.Context, individualID, date string) ([]model.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	windows := make([]model.AvailabilityWindow, 0)
	for _, w := range s.availability {
		if w.IndividualID == individualID && w.Date == date {
			windows = append(windows, w)
		}
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].StartTime == windows[j].StartTime {
			return windows[i].ID < windows[j].ID
		}
		return windows[i].StartTime < windows[j].StartTime
	})
	return windows, nil
}

// --- store.Writer ---

// InsertSchedule persists a new schedule. A second schedule for the same
// (department, time slot) pair is rejected with store.ErrDuplicate,
// mirroring the uniqueness constraint the SQLite store carries.
func (s *Store) InsertSchedule(_ context.Context, sched model.Schedule) (model.ScheduleDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	if _, ok := s.schedules[sched.ID]; ok {
		return model.ScheduleDetail{}, fmt.Errorf("schedule %s: %w", sched.ID, store.ErrDuplicate)
	}
	if _, ok := s.individuals[sched.IndividualID]; !ok {
		return model.ScheduleDetail{}, fmt.Errorf("individual %s: %w", sched.IndividualID, store.ErrNotFound)
	}
	if _, ok := s.departments[sched.DepartmentID]; !ok {
		return model.ScheduleDetail{}, fmt.Errorf("department %s: %w", sched.DepartmentID, store.ErrNotFound)
	}
	if _, ok := s.slots[sched.TimeSlotID]; !ok {
		return model.ScheduleDetail{}, fmt.Errorf("time slot %s: %w", sched.TimeSlotID, store.ErrNotFound)
	}
	for _, existing := range s.schedules {
		if existing.DepartmentID == sched.DepartmentID && existing.TimeSlotID == sched.TimeSlotID {
			return model.ScheduleDetail{}, fmt.Errorf("department %s already filled for slot %s: %w",
				sched.DepartmentID, sched.TimeSlotID, store.ErrDuplicate)
		}
	}
	now := time.Now().UTC()
	sched.CreatedAt = now
	sched.UpdatedAt = now
	s.schedules[sched.ID] = sched
	return s.enrichLocked(sched), nil
}

// --- store.SlotUpserter ---

// UpsertTimeSlots inserts the given slots keyed on (date, start_time) and
// returns the number stored. Existing slots for the same key keep their id.
func (s *Store) UpsertTimeSlots(_ context.Context, slots []model.TimeSlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, slot := range slots {
		existingID := ""
		for id, existing := range s.slots {
			if existing.Date == slot.Date && existing.StartTime == slot.StartTime {
				existingID = id
				break
			}
		}
		if existingID != "" {
			slot.ID = existingID
		} else if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		s.slots[slot.ID] = slot
		count++
	}
	return count, nil
}

func (s *Store) enrichLocked(sched model.Schedule) model.ScheduleDetail {
	detail := model.ScheduleDetail{Schedule: sched}
	if ind, ok := s.individuals[sched.IndividualID]; ok {
		detail.IndividualName = ind.Name
		detail.IndividualEmail = ind.Email
	}
	if dept, ok := s.departments[sched.DepartmentID]; ok {
		detail.DepartmentName = dept.Name
	}
	if slot, ok := s.slots[sched.TimeSlotID]; ok {
		detail.SlotDate = slot.Date
		detail.SlotStartTime = slot.StartTime
		detail.SlotEndTime = slot.EndTime
	}
	return detail
}
