// Package availability resolves the effective priority tier of an individual
// for a time slot from ranked availability windows.
package availability

import (
	"context"

	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/retry"
)

// WindowSource provides the availability windows of one individual on one
// date, in store order.
type WindowSource interface {
	AvailabilityForDate(ctx context.Context, individualID, date string) ([]model.AvailabilityWindow, error)
}

// TierResolver computes the effective tier of an individual for a slot.
type TierResolver interface {
	Resolve(ctx context.Context, individualID string, slot model.TimeSlot) (model.Tier, error)
}

// Resolver resolves tiers with one store read per call.
type Resolver struct {
	src   WindowSource
	retry retry.Options
}

// NewResolver creates a Resolver reading windows from src. Store reads are
// retried according to opts.
func NewResolver(src WindowSource, opts retry.Options) *Resolver {
	return &Resolver{src: src, retry: opts}
}

// Resolve returns the tier of the first window (in store order) fully
// containing the slot. When no window matches it returns
// model.TierUnavailable with a nil error: an unset availability is a defined
// default, not a failure. Overlapping windows are not ranked by specificity;
// first match wins.
func (r *Resolver) Resolve(ctx context.Context, individualID string, slot model.TimeSlot) (model.Tier, error) {
	var windows []model.AvailabilityWindow
	err := retry.Do(ctx, r.retry, func(ctx context.Context) error {
		var err error
		windows, err = r.src.AvailabilityForDate(ctx, individualID, slot.Date)
		return err
	})
	if err != nil {
		return model.TierUnavailable, err
	}
	return firstMatch(windows, slot), nil
}

// ForDate preloads the windows of the given individuals on date and returns
// a resolver serving from memory. The per-individual window order, and with
// it the first-match rule, is exactly the store order the per-call Resolver
// sees. Intended for batch runs, which would otherwise re-query the store
// once per individual per slot.
func (r *Resolver) ForDate(ctx context.Context, individuals []model.Individual, date string) (*CachedResolver, error) {
	cached := &CachedResolver{windows: make(map[string][]model.AvailabilityWindow, len(individuals))}
	for _, ind := range individuals {
		var windows []model.AvailabilityWindow
		err := retry.Do(ctx, r.retry, func(ctx context.Context) error {
			var err error
			windows, err = r.src.AvailabilityForDate(ctx, ind.ID, date)
			return err
		})
		if err != nil {
			return nil, err
		}
		cached.windows[ind.ID] = windows
	}
	return cached, nil
}

// CachedResolver serves tier lookups from preloaded windows.
type CachedResolver struct {
	windows map[string][]model.AvailabilityWindow
}

// Resolve implements TierResolver from the preloaded windows. Individuals
// absent from the preload resolve to the unavailable tier, same as having no
// windows configured.
func (c *CachedResolver) Resolve(_ context.Context, individualID string, slot model.TimeSlot) (model.Tier, error) {
	return firstMatch(c.windows[individualID], slot), nil
}

func firstMatch(windows []model.AvailabilityWindow, slot model.TimeSlot) model.Tier {
	for _, w := range windows {
		if w.Contains(slot) {
			return w.Tier
		}
	}
	return model.TierUnavailable
}
