package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/4Lajf/grafikonator-6000/core/availability"
	"github.com/4Lajf/grafikonator-6000/core/events"
	"github.com/4Lajf/grafikonator-6000/core/logger"
	coremetrics "github.com/4Lajf/grafikonator-6000/core/metrics"
	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/retry"
	"github.com/4Lajf/grafikonator-6000/core/runlog"
	"github.com/4Lajf/grafikonator-6000/core/store"
	"github.com/4Lajf/grafikonator-6000/internal/eventbus"
)

// BatchSuccess is one committed assignment within a batch run.
type BatchSuccess struct {
	Schedule   model.ScheduleDetail `json:"schedule"`
	TimeSlot   model.TimeSlot       `json:"time_slot"`
	Department model.Department     `json:"department"`
	Tier       model.Tier           `json:"tier"`
}

// BatchFailure is one (slot, department) pair that could not be filled.
type BatchFailure struct {
	Error      string           `json:"error"`
	TimeSlot   model.TimeSlot   `json:"time_slot"`
	Department model.Department `json:"department"`
}

// BatchResult aggregates one batch run. TotalProcessed always equals
// len(Successes)+len(Failures) and counts the pairs that were unfilled at
// enumeration time.
type BatchResult struct {
	RunID          string         `json:"run_id"`
	Date           string         `json:"date"`
	Successes      []BatchSuccess `json:"successes"`
	Failures       []BatchFailure `json:"failures"`
	TotalProcessed int            `json:"total_processed"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}

// Scheduler drives assignment across a whole day's slot×department matrix
// with partial-failure tolerance.
type Scheduler struct {
	store    store.Store
	assigner *Assigner
	resolver *availability.Resolver
	retry    retry.Options
	log      logger.Logger

	mu     sync.Mutex
	sink   coremetrics.Sink
	bus    eventbus.EventBus
	runlog runlog.Store
	now    func() time.Time
}

// NewScheduler creates a batch Scheduler.
func NewScheduler(st store.Store, assigner *Assigner, resolver *availability.Resolver, opts retry.Options, log logger.Logger) *Scheduler {
	return &Scheduler{
		store:    st,
		assigner: assigner,
		resolver: resolver,
		retry:    opts,
		log:      log,
		now:      time.Now,
	}
}

// SetSink configures the metrics sink assignment outcomes are recorded to.
func (s *Scheduler) SetSink(sink coremetrics.Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// SetBus configures the event bus batch events are published on.
func (s *Scheduler) SetBus(bus eventbus.EventBus) {
	s.mu.Lock()
	s.bus = bus
	s.mu.Unlock()
}

// SetRunLog configures the store used to persist batch run records.
func (s *Scheduler) SetRunLog(store runlog.Store) {
	s.mu.Lock()
	s.runlog = store
	s.mu.Unlock()
}

// SetClock overrides the time source. Tests use a fixed clock.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// ScheduleDay enumerates every (time slot × department) pair on the date
// that lacks an assignment and assigns each one in turn. Pairs already
// filled at enumeration time are skipped, which makes re-runs idempotent.
// One pair's failure never aborts the batch; the returned error is non-nil
// only when the enumeration reads themselves fail.
//
// Pairs are processed sequentially, slots outer and departments inner, in
// store load order. No fairness across individuals is attempted: a person
// with strong availability for an early slot may be exhausted before a later
// slot is reached. That is inherent to the greedy single pass.
func (s *Scheduler) ScheduleDay(ctx context.Context, date string) (BatchResult, error) {
	s.mu.Lock()
	sink, bus, logStore, now := s.sink, s.bus, s.runlog, s.now
	s.mu.Unlock()

	result := BatchResult{
		RunID:     uuid.NewString(),
		Date:      date,
		StartedAt: now(),
	}

	var slots []model.TimeSlot
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		slots, err = s.store.TimeSlotsForDate(ctx, date)
		return err
	})
	if err != nil {
		return result, err
	}

	var departments []model.Department
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		departments, err = s.store.Departments(ctx)
		return err
	})
	if err != nil {
		return result, err
	}

	var existing []model.ScheduleDetail
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		existing, err = s.store.SchedulesForDate(ctx, date)
		return err
	})
	if err != nil {
		return result, err
	}
	filled := make(map[string]struct{}, len(existing))
	for _, sched := range existing {
		filled[sched.TimeSlotID+"|"+sched.DepartmentID] = struct{}{}
	}

	resolver := s.preloadResolver(ctx, date)

	for _, slot := range slots {
		for _, dept := range departments {
			if _, ok := filled[slot.ID+"|"+dept.ID]; ok {
				continue
			}
			detail, tier, err := s.assigner.AssignWith(ctx, dept.ID, slot.ID, resolver)
			if err != nil {
				result.Failures = append(result.Failures, BatchFailure{
					Error:      err.Error(),
					TimeSlot:   slot,
					Department: dept,
				})
				s.record(sink, coremetrics.AssignmentResult{
					RunID:          result.RunID,
					Date:           date,
					DepartmentID:   dept.ID,
					DepartmentName: dept.Name,
					TimeSlotID:     slot.ID,
					SlotStartTime:  slot.StartTime,
					Tier:           model.TierUnavailable,
					Reason:         err.Error(),
					Time:           now(),
				})
				if bus != nil {
					bus.Publish(events.AssignmentFailedEvent{
						RunID:        result.RunID,
						DepartmentID: dept.ID,
						TimeSlotID:   slot.ID,
						Reason:       err.Error(),
						Time:         now(),
					})
				}
				continue
			}
			result.Successes = append(result.Successes, BatchSuccess{
				Schedule:   detail,
				TimeSlot:   slot,
				Department: dept,
				Tier:       tier,
			})
			s.record(sink, coremetrics.AssignmentResult{
				RunID:          result.RunID,
				Date:           date,
				DepartmentID:   dept.ID,
				DepartmentName: dept.Name,
				TimeSlotID:     slot.ID,
				SlotStartTime:  slot.StartTime,
				IndividualID:   detail.IndividualID,
				Tier:           tier,
				Assigned:       true,
				Time:           now(),
			})
			if bus != nil {
				bus.Publish(events.AssignmentEvent{
					RunID:    result.RunID,
					Schedule: detail,
					Tier:     tier,
					Time:     now(),
				})
			}
		}
	}

	result.TotalProcessed = len(result.Successes) + len(result.Failures)
	result.FinishedAt = now()
	duration := result.FinishedAt.Sub(result.StartedAt)

	s.log.Infof("batch run %s for %s: %d assigned, %d failed, %d processed",
		result.RunID, date, len(result.Successes), len(result.Failures), result.TotalProcessed)

	if bus != nil {
		bus.Publish(events.BatchCompletedEvent{
			RunID:          result.RunID,
			Date:           date,
			Successes:      len(result.Successes),
			Failures:       len(result.Failures),
			TotalProcessed: result.TotalProcessed,
			Duration:       duration,
		})
	}
	if rec, ok := sink.(coremetrics.BatchRunRecorder); ok && sink != nil {
		if err := rec.RecordBatchRun(coremetrics.BatchRunResult{
			RunID:          result.RunID,
			Date:           date,
			Successes:      len(result.Successes),
			Failures:       len(result.Failures),
			TotalProcessed: result.TotalProcessed,
			Duration:       duration,
			Time:           result.FinishedAt,
		}); err != nil {
			s.log.Errorf("batch run metrics error: %v", err)
		}
	}
	if logStore != nil {
		if err := logStore.Append(ctx, s.runRecord(result)); err != nil {
			s.log.Errorf("run log append error: %v", err)
		}
	}
	return result, nil
}

// preloadResolver primes a per-date resolver to avoid one availability query
// per individual per slot. When the preload fails the per-call resolver is
// used instead; the batch keeps going either way.
func (s *Scheduler) preloadResolver(ctx context.Context, date string) availability.TierResolver {
	var individuals []model.Individual
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		individuals, err = s.store.Individuals(ctx)
		return err
	})
	if err == nil {
		if cached, cerr := s.resolver.ForDate(ctx, individuals, date); cerr == nil {
			return cached
		} else {
			err = cerr
		}
	}
	s.log.Warnf("availability preload failed, falling back to per-call resolution: %v", err)
	return s.resolver
}

func (s *Scheduler) record(sink coremetrics.Sink, res coremetrics.AssignmentResult) {
	if sink == nil {
		return
	}
	if err := sink.RecordAssignments([]coremetrics.AssignmentResult{res}); err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
}

func (s *Scheduler) runRecord(result BatchResult) runlog.Record {
	rec := runlog.Record{
		RunID:          result.RunID,
		Date:           result.Date,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		TotalProcessed: result.TotalProcessed,
	}
	for _, s := range result.Successes {
		rec.Successes = append(rec.Successes, runlog.Entry{
			DepartmentID:   s.Department.ID,
			DepartmentName: s.Department.Name,
			TimeSlotID:     s.TimeSlot.ID,
			SlotStartTime:  s.TimeSlot.StartTime,
			IndividualID:   s.Schedule.IndividualID,
			IndividualName: s.Schedule.IndividualName,
			Tier:           int(s.Tier),
		})
	}
	for _, f := range result.Failures {
		rec.Failures = append(rec.Failures, runlog.Entry{
			DepartmentID:   f.Department.ID,
			DepartmentName: f.Department.Name,
			TimeSlotID:     f.TimeSlot.ID,
			SlotStartTime:  f.TimeSlot.StartTime,
			Error:          f.Error,
		})
	}
	return rec
}
