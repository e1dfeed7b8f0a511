// Package sqlite implements the scheduling store on SQLite via the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS individuals (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS departments (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS time_slots (
    id         TEXT PRIMARY KEY,
    slot_date  TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time   TEXT NOT NULL,
    is_active  INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (slot_date, start_time)
);
CREATE TABLE IF NOT EXISTS availability_windows (
    id            TEXT PRIMARY KEY,
    individual_id TEXT NOT NULL REFERENCES individuals(id),
    win_date      TEXT NOT NULL,
    start_time    TEXT NOT NULL,
    end_time      TEXT NOT NULL,
    tier          INTEGER NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_availability_individual_date
    ON availability_windows (individual_id, win_date);
CREATE TABLE IF NOT EXISTS schedules (
    id            TEXT PRIMARY KEY,
    individual_id TEXT NOT NULL REFERENCES individuals(id),
    department_id TEXT NOT NULL REFERENCES departments(id),
    time_slot_id  TEXT NOT NULL REFERENCES time_slots(id),
    status        TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL,
    UNIQUE (department_id, time_slot_id)
);
CREATE INDEX IF NOT EXISTS idx_schedules_slot ON schedules (time_slot_id);
`

// Store persists scheduling data in a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// wrapErr maps driver errors onto the store sentinels.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// --- writes used by seeding and the CLI ---

// InsertIndividual stores a new individual.
func (s *Store) InsertIndividual(ctx context.Context, ind model.Individual) (model.Individual, error) {
	if ind.ID == "" {
		ind.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ind.CreatedAt, ind.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO individuals (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		ind.ID, ind.Name, ind.Email, ind.CreatedAt, ind.UpdatedAt)
	return ind, wrapErr("insert individual", err)
}

// InsertDepartment stores a new department.
func (s *Store) InsertDepartment(ctx context.Context, dept model.Department) (model.Department, error) {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	dept.CreatedAt, dept.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO departments (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		dept.ID, dept.Name, dept.CreatedAt, dept.UpdatedAt)
	return dept, wrapErr("insert department", err)
}

// InsertAvailability stores a new availability window.
func (s *Store) InsertAvailability(ctx context.Context, w model.AvailabilityWindow) (model.AvailabilityWindow, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO availability_windows (id, individual_id, win_date, start_time, end_time, tier, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.IndividualID, w.Date, w.StartTime, w.EndTime, int(w.Tier), w.CreatedAt, w.UpdatedAt)
	return w, wrapErr("insert availability", err)
}

// --- store.Reader ---

// TimeSlot retrieves a time slot by id.
func (s *Store) TimeSlot(ctx context.Context, id string) (model.TimeSlot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, slot_date, start_time, end_time, is_active, created_at, updated_at
         FROM time_slots WHERE id = ?`, id)
	var slot model.TimeSlot
	err := row.Scan(&slot.ID, &slot.Date, &slot.StartTime, &slot.EndTime, &slot.Active, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return model.TimeSlot{}, wrapErr("select time slot", err)
	}
	return slot, nil
}

// TimeSlotsForDate lists active slots on the date ordered by start time.
func (s *Store) TimeSlotsForDate(ctx context.Context, date string) ([]model.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slot_date, start_time, end_time, is_active, created_at, updated_at
         FROM time_slots WHERE slot_date = ? AND is_active = 1
         ORDER BY start_time, id`, date)
	if err != nil {
		return nil, wrapErr("select time slots", err)
	}
	defer rows.Close()
	slots := make([]model.TimeSlot, 0)
	for rows.Next() {
		var slot model.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.Date, &slot.StartTime, &slot.EndTime, &slot.Active, &slot.CreatedAt, &slot.UpdatedAt); err != nil {
			return nil, wrapErr("scan time slot", err)
		}
		slots = append(slots, slot)
	}
	return slots, wrapErr("select time slots", rows.Err())
}

// Departments lists all departments ordered by name.
func (s *Store) Departments(ctx context.Context) ([]model.Department, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("select departments", err)
	}
	defer rows.Close()
	departments := make([]model.Department, 0)
	for rows.Next() {
		var dept model.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, wrapErr("scan department", err)
		}
		departments = append(departments, dept)
	}
	return departments, wrapErr("select departments", rows.Err())
}

// Individuals lists all individuals ordered by name.
func (s *Store) Individuals(ctx context.Context) ([]model.Individual, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM individuals ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("select individuals", err)
	}
	defer rows.Close()
	individuals := make([]model.Individual, 0)
	for rows.Next() {
		var ind model.Individual
		if err := rows.Scan(&ind.ID, &ind.Name, &ind.Email, &ind.CreatedAt, &ind.UpdatedAt); err != nil {
			return nil, wrapErr("scan individual", err)
		}
		individuals = append(individuals, ind)
	}
	return individuals, wrapErr("select individuals", rows.Err())
}

// AssignedIndividuals returns the distinct individuals already scheduled for
// the slot, across all departments.
func (s *Store) AssignedIndividuals(ctx context.Context, timeSlotID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT individual_id FROM schedules WHERE time_slot_id = ? ORDER BY individual_id`, timeSlotID)
	if err != nil {
		return nil, wrapErr("select assigned individuals", err)
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("scan assigned individual", err)
		}
		ids = append(ids, id)
	}
	return ids, wrapErr("select assigned individuals", rows.Err())
}

const detailColumns = `
    s.id, s.individual_id, s.department_id, s.time_slot_id, s.status, s.created_at, s.updated_at,
    i.name, i.email, d.name, t.slot_date, t.start_time, t.end_time`

const detailJoins = `
    FROM schedules s
    JOIN individuals i ON i.id = s.individual_id
    JOIN departments d ON d.id = s.department_id
    JOIN time_slots t ON t.id = s.time_slot_id`

func scanDetail(row interface{ Scan(...any) error }) (model.ScheduleDetail, error) {
	var detail model.ScheduleDetail
	err := row.Scan(
		&detail.ID, &detail.IndividualID, &detail.DepartmentID, &detail.TimeSlotID,
		&detail.Status, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.IndividualName, &detail.IndividualEmail, &detail.DepartmentName,
		&detail.SlotDate, &detail.SlotStartTime, &detail.SlotEndTime)
	return detail, err
}

// SchedulesForDate lists enriched schedules on the date ordered by slot
// start time.
func (s *Store) SchedulesForDate(ctx context.Context, date string) ([]model.ScheduleDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+detailColumns+detailJoins+`
         WHERE t.slot_date = ? ORDER BY t.start_time, s.id`, date)
	if err != nil {
		return nil, wrapErr("select schedules", err)
	}
	defer rows.Close()
	details := make([]model.ScheduleDetail, 0)
	for rows.Next() {
		detail, err := scanDetail(rows)
		if err != nil {
			return nil, wrapErr("scan schedule", err)
		}
		details = append(details, detail)
	}
	return details, wrapErr("select schedules", rows.Err())
}

// AvailabilityForDate lists the individual's windows ordered by
// (start_time, id), the order the first-match rule applies in.
func (s *Store) AvailabilityForDate(ctx context.Context, individualID, date string) ([]model.AvailabilityWindow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, individual_id, win_date, start_time, end_time, tier, created_at, updated_at
         FROM availability_windows WHERE individual_id = ? AND win_date = ?
         ORDER BY start_time, id`, individualID, date)
	if err != nil {
		return nil, wrapErr("select availability", err)
	}
	defer rows.Close()
	windows := make([]model.AvailabilityWindow, 0)
	for rows.Next() {
		var w model.AvailabilityWindow
		var tier int
		if err := rows.Scan(&w.ID, &w.IndividualID, &w.Date, &w.StartTime, &w.EndTime, &tier, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, wrapErr("scan availability", err)
		}
		w.Tier = model.Tier(tier)
		windows = append(windows, w)
	}
	return windows, wrapErr("select availability", rows.Err())
}

// --- store.Writer ---

// InsertSchedule persists a new schedule and returns it enriched. The
// UNIQUE (department_id, time_slot_id) constraint turns a double-fill race
// into store.ErrDuplicate instead of a second row.
func (s *Store) InsertSchedule(ctx context.Context, sched model.Schedule) (model.ScheduleDetail, error) {
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sched.CreatedAt, sched.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules (id, individual_id, department_id, time_slot_id, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sched.ID, sched.IndividualID, sched.DepartmentID, sched.TimeSlotID, sched.Status, sched.CreatedAt, sched.UpdatedAt)
	if err != nil {
		return model.ScheduleDetail{}, wrapErr("insert schedule", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+detailJoins+` WHERE s.id = ?`, sched.ID)
	detail, err := scanDetail(row)
	if err != nil {
		return model.ScheduleDetail{}, wrapErr("select inserted schedule", err)
	}
	return detail, nil
}

// --- store.SlotUpserter ---

// UpsertTimeSlots writes the slots keyed on (slot_date, start_time) and
// returns the number written.
func (s *Store) UpsertTimeSlots(ctx context.Context, slots []model.TimeSlot) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("begin upsert", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	count := 0
	for _, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO time_slots (id, slot_date, start_time, end_time, is_active, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT (slot_date, start_time) DO UPDATE SET
                 end_time = excluded.end_time,
                 is_active = excluded.is_active,
                 updated_at = excluded.updated_at`,
			slot.ID, slot.Date, slot.StartTime, slot.EndTime, slot.Active, now, now)
		if err != nil {
			return 0, wrapErr("upsert time slot", err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, wrapErr("commit upsert", err)
	}
	return count, nil
}
