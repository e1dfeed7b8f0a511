// Package slotgen generates the half-hour time slot grid the scheduler
// assigns into.
package slotgen

import (
	"context"
	"fmt"
	"time"

	"github.com/4Lajf/grafikonator-6000/core/logger"
	"github.com/4Lajf/grafikonator-6000/core/model"
	"github.com/4Lajf/grafikonator-6000/core/retry"
	"github.com/4Lajf/grafikonator-6000/core/store"
)

const (
	// DefaultStartHour is the first slot's hour when Options leaves
	// StartHour unset.
	DefaultStartHour = 8
	// DefaultEndHour is the exclusive upper bound; the last slot ends at
	// this hour.
	DefaultEndHour = 20

	slotMinutes = 30
	dateLayout  = "2006-01-02"
)

// Options tunes the generated grid.
type Options struct {
	StartHour int
	EndHour   int
}

func (o Options) withDefaults() Options {
	if o.StartHour == 0 && o.EndHour == 0 {
		o.StartHour = DefaultStartHour
		o.EndHour = DefaultEndHour
	}
	return o
}

// Validate checks that the hour range is usable.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.StartHour < 0 || o.EndHour > 24 || o.StartHour >= o.EndHour {
		return fmt.Errorf("slotgen: invalid hour range %d-%d", o.StartHour, o.EndHour)
	}
	return nil
}

// Generator writes time slot grids through a slot upserter.
type Generator struct {
	store store.SlotUpserter
	retry retry.Options
	log   logger.Logger
}

// NewGenerator creates a Generator. Upserts are wrapped with the given retry
// options.
func NewGenerator(st store.SlotUpserter, opts retry.Options, log logger.Logger) (*Generator, error) {
	if st == nil || log == nil {
		return nil, fmt.Errorf("slotgen: nil parameter provided to NewGenerator")
	}
	return &Generator{store: st, retry: opts, log: log}, nil
}

// SlotsForDate builds the 30-minute grid for one date without touching the
// store. Slots are active and ordered by start time.
func SlotsForDate(date string, opts Options) ([]model.TimeSlot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("slotgen: invalid date %q: %w", date, err)
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var slots []model.TimeSlot
	for hour := opts.StartHour; hour < opts.EndHour; hour++ {
		for _, minute := range []int{0, slotMinutes} {
			endHour, endMinute := hour, minute+slotMinutes
			if endMinute == 60 {
				endHour, endMinute = hour+1, 0
			}
			slots = append(slots, model.TimeSlot{
				Date:      date,
				StartTime: fmt.Sprintf("%02d:%02d:00", hour, minute),
				EndTime:   fmt.Sprintf("%02d:%02d:00", endHour, endMinute),
				Active:    true,
			})
		}
	}
	return slots, nil
}

// GenerateDate upserts the grid for one date and returns the number of
// slots written. Existing slots for a (date, start time) pair are updated
// in place rather than duplicated.
func (g *Generator) GenerateDate(ctx context.Context, date string, opts Options) (int, error) {
	slots, err := SlotsForDate(date, opts)
	if err != nil {
		return 0, err
	}
	var count int
	err = retry.Do(ctx, g.retry, func(ctx context.Context) error {
		var err error
		count, err = g.store.UpsertTimeSlots(ctx, slots)
		return err
	})
	if err != nil {
		return 0, err
	}
	g.log.Infof("generated %d slots for %s", count, date)
	return count, nil
}

// GenerateRange upserts grids for every date from 'from' to 'to' inclusive
// and returns the total number of slots written.
func (g *Generator) GenerateRange(ctx context.Context, from, to string, opts Options) (int, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("slotgen: invalid date %q: %w", from, err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("slotgen: invalid date %q: %w", to, err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("slotgen: range end %s before start %s", to, from)
	}
	total := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		n, err := g.GenerateDate(ctx, d.Format(dateLayout), opts)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
