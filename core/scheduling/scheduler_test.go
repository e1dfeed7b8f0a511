package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4Lajf/grafikonator-6000/core/availability"
	"github.com/4Lajf/grafikonator-6000/core/events"
	coremetrics "github.com/4Lajf/grafikonator-6000/core/metrics"
	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/runlog"
	"github.com/4Lajf/grafikonator-6000/infra/logger"
	"github.com/4Lajf/grafikonator-6000/infra/store/memory"
	"github.com/4Lajf/grafikonator-6000/internal/eventbus"
)

type recordingSink struct {
	mu          sync.Mutex
	assignments []coremetrics.AssignmentResult
	runs        []coremetrics.BatchRunResult
}

func (s *recordingSink) RecordAssignments(results []coremetrics.AssignmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, results...)
	return nil
}

func (s *recordingSink) RecordBatchRun(res coremetrics.BatchRunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, res)
	return nil
}

type memRunLog struct {
	mu      sync.Mutex
	records []runlog.Record
}

func (m *memRunLog) Append(_ context.Context, rec runlog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memRunLog) Query(context.Context, runlog.Query) ([]runlog.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]runlog.Record(nil), m.records...), nil
}

func (m *memRunLog) Close() error { return nil }

func newScheduler(t *testing.T, st *memory.Store) *Scheduler {
	t.Helper()
	resolver := availability.NewResolver(st, fastRetry())
	assigner, err := NewAssigner(st, resolver, fastRetry(), logger.NopLogger{})
	require.NoError(t, err)
	return NewScheduler(st, assigner, resolver, fastRetry(), logger.NopLogger{})
}

// One department, two slots, Alice tier 1 across both, Bob tier 2 on the
// first only. Alice wins both slots: the exclusion set is per slot, not per
// day.
func TestScheduleDayFrontDeskScenario(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	bob := st.AddIndividual(model.Individual{Name: "Bob"})
	st.AddDepartment(model.Department{Name: "Front Desk"})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:30:00", EndTime: "10:00:00", Active: true})
	st.AddAvailability(window(alice.ID, "2024-01-01", "09:00:00", "10:00:00", model.TierPrimary))
	st.AddAvailability(window(bob.ID, "2024-01-01", "09:00:00", "09:30:00", model.TierSecondary))

	result, err := newScheduler(t, st).ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, result.Successes, 2)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 2, result.TotalProcessed)
	for _, s := range result.Successes {
		assert.Equal(t, alice.ID, s.Schedule.IndividualID)
		assert.Equal(t, model.TierPrimary, s.Tier)
	}
}

func TestScheduleDayRerunIsIdempotent(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	st.AddDepartment(model.Department{Name: "Front Desk"})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true})
	st.AddAvailability(window(alice.ID, "2024-01-01", "08:00:00", "12:00:00", model.TierPrimary))

	s := newScheduler(t, st)
	first, err := s.ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, first.Successes, 1)

	second, err := s.ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, second.Successes)
	assert.Empty(t, second.Failures)
	assert.Equal(t, 0, second.TotalProcessed)
}

func TestScheduleDayPartialFailureContinues(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	st.AddDepartment(model.Department{Name: "Reception"})
	st.AddDepartment(model.Department{Name: "Support"})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:30:00", EndTime: "10:00:00", Active: true})
	st.AddAvailability(window(alice.ID, "2024-01-01", "08:00:00", "12:00:00", model.TierPrimary))

	// Alice can fill one department per slot; the second department of each
	// slot has nobody left. Both slots must still be processed in full.
	result, err := newScheduler(t, st).ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, result.Successes, 2)
	assert.Len(t, result.Failures, 2)
	assert.Equal(t, 4, result.TotalProcessed)
	for _, f := range result.Failures {
		assert.Contains(t, f.Error, "no available person")
	}
}

func TestScheduleDayTotalProcessedInvariant(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	bob := st.AddIndividual(model.Individual{Name: "Bob"})
	for _, name := range []string{"A", "B", "C"} {
		st.AddDepartment(model.Department{Name: name})
	}
	for _, start := range []string{"09:00:00", "09:30:00", "10:00:00"} {
		end := start[:3] + "30:00"
		if start == "09:30:00" {
			end = "10:00:00"
		}
		if start == "10:00:00" {
			end = "10:30:00"
		}
		st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: start, EndTime: end, Active: true})
	}
	st.AddAvailability(window(alice.ID, "2024-01-01", "09:00:00", "10:00:00", model.TierPrimary))
	st.AddAvailability(window(bob.ID, "2024-01-01", "09:30:00", "10:30:00", model.TierBackup))

	result, err := newScheduler(t, st).ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, len(result.Successes)+len(result.Failures), result.TotalProcessed)
	assert.Equal(t, 9, result.TotalProcessed)
}

func TestScheduleDayEmptyDay(t *testing.T) {
	st := memory.New()
	st.AddDepartment(model.Department{Name: "Front Desk"})

	result, err := newScheduler(t, st).ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalProcessed)
	assert.NotEmpty(t, result.RunID)
}

func TestScheduleDaySkipsInactiveSlots(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	st.AddDepartment(model.Department{Name: "Front Desk"})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: false})
	st.AddAvailability(window(alice.ID, "2024-01-01", "08:00:00", "12:00:00", model.TierPrimary))

	result, err := newScheduler(t, st).ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalProcessed)
}

func TestScheduleDayRecordsMetricsAndRunLog(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	st.AddDepartment(model.Department{Name: "Reception"})
	st.AddDepartment(model.Department{Name: "Support"})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true})
	st.AddAvailability(window(alice.ID, "2024-01-01", "08:00:00", "12:00:00", model.TierPrimary))

	sink := &recordingSink{}
	logStore := &memRunLog{}
	s := newScheduler(t, st)
	s.SetSink(sink)
	s.SetRunLog(logStore)

	result, err := s.ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, result.Successes, 1)
	assert.Len(t, result.Failures, 1)

	require.Len(t, sink.assignments, 2)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, result.RunID, sink.runs[0].RunID)
	assert.Equal(t, 2, sink.runs[0].TotalProcessed)

	require.Len(t, logStore.records, 1)
	rec := logStore.records[0]
	assert.Equal(t, result.RunID, rec.RunID)
	require.Len(t, rec.Successes, 1)
	assert.Equal(t, alice.ID, rec.Successes[0].IndividualID)
	assert.Equal(t, int(model.TierPrimary), rec.Successes[0].Tier)
	require.Len(t, rec.Failures, 1)
}

func TestScheduleDayPublishesEvents(t *testing.T) {
	st := memory.New()
	alice := st.AddIndividual(model.Individual{Name: "Alice"})
	st.AddDepartment(model.Department{Name: "Reception"})
	st.AddDepartment(model.Department{Name: "Support"})
	st.AddTimeSlot(model.TimeSlot{Date: "2024-01-01", StartTime: "09:00:00", EndTime: "09:30:00", Active: true})
	st.AddAvailability(window(alice.ID, "2024-01-01", "08:00:00", "12:00:00", model.TierPrimary))

	bus := eventbus.New()
	defer bus.Close()
	ch := bus.Subscribe()

	s := newScheduler(t, st)
	s.SetBus(bus)

	_, err := s.ScheduleDay(context.Background(), "2024-01-01")
	require.NoError(t, err)

	var assigned, failed, completed int
	timeout := time.After(time.Second)
	for assigned == 0 || failed == 0 || completed == 0 {
		select {
		case ev := <-ch:
			switch ev.(type) {
			case events.AssignmentEvent:
				assigned++
			case events.AssignmentFailedEvent:
				failed++
			case events.BatchCompletedEvent:
				completed++
			}
		case <-timeout:
			t.Fatalf("missing events: assigned=%d failed=%d completed=%d", assigned, failed, completed)
		}
	}
}
