package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seed(t *testing.T, st *Store) (model.Individual, model.Department, model.TimeSlot) {
	t.Helper()
	ctx := context.Background()
	ind, err := st.InsertIndividual(ctx, model.Individual{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	dept, err := st.InsertDepartment(ctx, model.Department{Name: "Front Desk"})
	require.NoError(t, err)
	n, err := st.UpsertTimeSlots(ctx, []model.TimeSlot{
		{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	slots, err := st.TimeSlotsForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	return ind, dept, slots[0]
}

func TestTimeSlotNotFound(t *testing.T) {
	st := newStore(t)
	_, err := st.TimeSlot(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertScheduleAndReadBack(t *testing.T) {
	st := newStore(t)
	ind, dept, slot := seed(t, st)
	ctx := context.Background()

	detail, err := st.InsertSchedule(ctx, model.Schedule{
		IndividualID: ind.ID,
		DepartmentID: dept.ID,
		TimeSlotID:   slot.ID,
		Status:       model.StatusScheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", detail.IndividualName)
	assert.Equal(t, "alice@example.com", detail.IndividualEmail)
	assert.Equal(t, "Front Desk", detail.DepartmentName)
	assert.Equal(t, "09:00:00", detail.SlotStartTime)
	assert.Equal(t, model.StatusScheduled, detail.Status)

	assigned, err := st.AssignedIndividuals(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ind.ID}, assigned)

	details, err := st.SchedulesForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, detail.ID, details[0].ID)
}

func TestInsertScheduleDuplicatePairRejected(t *testing.T) {
	st := newStore(t)
	ind, dept, slot := seed(t, st)
	ctx := context.Background()

	bob, err := st.InsertIndividual(ctx, model.Individual{Name: "Bob"})
	require.NoError(t, err)

	_, err = st.InsertSchedule(ctx, model.Schedule{
		IndividualID: ind.ID, DepartmentID: dept.ID, TimeSlotID: slot.ID, Status: model.StatusScheduled,
	})
	require.NoError(t, err)

	// A second fill for the same (department, slot) pair must surface the
	// duplicate sentinel regardless of who is assigned.
	_, err = st.InsertSchedule(ctx, model.Schedule{
		IndividualID: bob.ID, DepartmentID: dept.ID, TimeSlotID: slot.ID, Status: model.StatusScheduled,
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUpsertTimeSlotsKeepsKeyStable(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.UpsertTimeSlots(ctx, []model.TimeSlot{
		{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true},
	})
	require.NoError(t, err)
	first, err := st.TimeSlotsForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = st.UpsertTimeSlots(ctx, []model.TimeSlot{
		{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true},
	})
	require.NoError(t, err)
	second, err := st.TimeSlotsForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestAvailabilityOrderedByStartTime(t *testing.T) {
	st := newStore(t)
	ind, _, _ := seed(t, st)
	ctx := context.Background()

	_, err := st.InsertAvailability(ctx, model.AvailabilityWindow{
		IndividualID: ind.ID, Date: "2024-01-01", StartTime: "12:00:00", EndTime: "14:00:00", Tier: model.TierBackup,
	})
	require.NoError(t, err)
	_, err = st.InsertAvailability(ctx, model.AvailabilityWindow{
		IndividualID: ind.ID, Date: "2024-01-01", StartTime: "08:00:00", EndTime: "12:00:00", Tier: model.TierPrimary,
	})
	require.NoError(t, err)

	windows, err := st.AvailabilityForDate(ctx, ind.ID, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "08:00:00", windows[0].StartTime)
	assert.Equal(t, model.TierPrimary, windows[0].Tier)
	assert.Equal(t, "12:00:00", windows[1].StartTime)
}

func TestInactiveSlotsExcludedFromDateListing(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	_, err := st.UpsertTimeSlots(ctx, []model.TimeSlot{
		{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true},
		{Date: "2024-01-01", StartTime: "09:30:00", EndTime: "10:00:00", Active: false},
	})
	require.NoError(t, err)

	slots, err := st.TimeSlotsForDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00:00", slots[0].StartTime)
}

func TestIndividualsOrderedByName(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	for _, name := range []string{"Carol", "Alice", "Bob"} {
		_, err := st.InsertIndividual(ctx, model.Individual{Name: name})
		require.NoError(t, err)
	}
	individuals, err := st.Individuals(ctx)
	require.NoError(t, err)
	require.Len(t, individuals, 3)
	assert.Equal(t, "Alice", individuals[0].Name)
	assert.Equal(t, "Bob", individuals[1].Name)
	assert.Equal(t, "Carol", individuals[2].Name)
}
