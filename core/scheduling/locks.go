package scheduling

import "sync"

// slotLocks serializes assignment work per time slot id. Without it two
// concurrent assignments for the same slot can read a stale exclusion set
// and both commit.
type slotLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the mutex for the given slot id, creating it on first use.
// Mutexes are never released from the map; the cardinality is bounded by the
// number of slots per day.
func (l *slotLocks) acquire(timeSlotID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[timeSlotID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[timeSlotID] = m
	}
	return m
}
