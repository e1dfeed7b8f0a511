// Package scheduling implements the availability-tiered auto-scheduling
// engine: single slot assignment and the day-level batch driver.
package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/4Lajf/grafikonator-6000/core/availability"
	"github.com/4Lajf/grafikonator-6000/core/errs"
	"github.com/4Lajf/grafikonator-6000/core/logger"
	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/retry"
	"github.com/4Lajf/grafikonator-6000/core/store"
)

// Assigner selects the best eligible individual for a (department, time
// slot) pair and commits one schedule record.
type Assigner struct {
	store    store.Store
	resolver availability.TierResolver
	locks    *slotLocks
	retry    retry.Options
	log      logger.Logger
}

// NewAssigner creates an Assigner. Store calls are wrapped with the given
// retry options.
func NewAssigner(st store.Store, resolver availability.TierResolver, opts retry.Options, log logger.Logger) (*Assigner, error) {
	if st == nil || resolver == nil || log == nil {
		return nil, fmt.Errorf("scheduling: nil parameter provided to NewAssigner")
	}
	return &Assigner{
		store:    st,
		resolver: resolver,
		locks:    newSlotLocks(),
		retry:    opts,
		log:      log,
	}, nil
}

// Assign resolves and commits the best candidate for the pair, returning
// the committed schedule and the tier it was won at. It fails with a
// not-found kind when the slot does not exist and a no-candidate kind when
// nobody below the unavailable tier is left for the slot.
func (a *Assigner) Assign(ctx context.Context, departmentID, timeSlotID string) (model.ScheduleDetail, model.Tier, error) {
	return a.AssignWith(ctx, departmentID, timeSlotID, a.resolver)
}

// AssignWith runs the assignment using the provided tier resolver instead of
// the default per-call one. The batch scheduler passes a resolver preloaded
// for the run's date.
//
// The whole read-decide-write sequence holds the slot's lock, so concurrent
// assignments for one slot serialize instead of racing on a stale exclusion
// set. Assignments for different slots proceed in parallel.
func (a *Assigner) AssignWith(ctx context.Context, departmentID, timeSlotID string, resolver availability.TierResolver) (model.ScheduleDetail, model.Tier, error) {
	mu := a.locks.acquire(timeSlotID)
	mu.Lock()
	defer mu.Unlock()

	var slot model.TimeSlot
	err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
		var err error
		slot, err = a.store.TimeSlot(ctx, timeSlotID)
		return err
	})
	if err != nil {
		return model.ScheduleDetail{}, model.TierUnavailable, err
	}

	var individuals []model.Individual
	err = retry.Do(ctx, a.retry, func(ctx context.Context) error {
		var err error
		individuals, err = a.store.Individuals(ctx)
		return err
	})
	if err != nil {
		return model.ScheduleDetail{}, model.TierUnavailable, err
	}

	// Individuals already holding a schedule for this exact slot, in any
	// department, are excluded. The set is scoped to the slot only: the same
	// person may hold one schedule per department within the slot interval.
	var assigned []string
	err = retry.Do(ctx, a.retry, func(ctx context.Context) error {
		var err error
		assigned, err = a.store.AssignedIndividuals(ctx, timeSlotID)
		return err
	})
	if err != nil {
		return model.ScheduleDetail{}, model.TierUnavailable, err
	}
	excluded := make(map[string]struct{}, len(assigned))
	for _, id := range assigned {
		excluded[id] = struct{}{}
	}

	var best *model.Individual
	bestTier := model.TierUnavailable + 1 // scan bound, never assignable
	for i := range individuals {
		ind := individuals[i]
		if _, ok := excluded[ind.ID]; ok {
			continue
		}
		tier, err := resolver.Resolve(ctx, ind.ID, slot)
		if err != nil {
			return model.ScheduleDetail{}, model.TierUnavailable, err
		}
		// Strict inequality on both clauses: ties keep the candidate
		// encountered first in load order.
		if tier.Assignable() && tier.BetterThan(bestTier) {
			best = &individuals[i]
			bestTier = tier
		}
	}
	if best == nil {
		return model.ScheduleDetail{}, model.TierUnavailable, errs.New(errs.KindNoCandidate,
			fmt.Sprintf("no available person for slot %s %s", slot.Date, slot.StartTime))
	}

	schedule := model.Schedule{
		ID:           uuid.NewString(),
		IndividualID: best.ID,
		DepartmentID: departmentID,
		TimeSlotID:   timeSlotID,
		Status:       model.StatusScheduled,
	}
	var detail model.ScheduleDetail
	err = retry.Do(ctx, a.retry, func(ctx context.Context) error {
		var err error
		detail, err = a.store.InsertSchedule(ctx, schedule)
		return err
	})
	if err != nil {
		return model.ScheduleDetail{}, model.TierUnavailable, err
	}

	a.log.Infof("assigned %s (%s) to department %s for %s %s",
		best.Name, bestTier, departmentID, slot.Date, slot.StartTime)
	return detail, bestTier, nil
}
