package model

import "fmt"

// Tier ranks an individual's availability preference for a time window.
// Lower values are more preferred. TierUnavailable is a reserved sentinel
// and is never assignable.
type Tier int

const (
	// TierPrimary is the strongest preference.
	TierPrimary Tier = 1
	// TierSecondary is offered when no primary candidate exists.
	TierSecondary Tier = 2
	// TierBackup is a last-resort preference.
	TierBackup Tier = 3
	// TierUnavailable marks an individual as not available. It is also the
	// default when no availability window covers a slot.
	TierUnavailable Tier = 4
)

// Assignable reports whether an individual holding this tier may be
// scheduled.
func (t Tier) Assignable() bool {
	return t >= TierPrimary && t < TierUnavailable
}

// BetterThan reports whether t is strictly more preferred than other.
func (t Tier) BetterThan(other Tier) bool {
	return t < other
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= TierPrimary && t <= TierUnavailable
}

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierBackup:
		return "backup"
	case TierUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}
