package usecases

import (
	"sync"
	"time"
)

// DefaultSaveInterval is the minimum time between two durable writes
const DefaultSaveInterval = 60 * time.Second

// PersistenceGate rate limits durable writes to one per interval.
// Display updates are not affected by it.
type PersistenceGate struct {
	mu       sync.Mutex
	interval time.Duration
	lastSave time.Time
}

// NewPersistenceGate creates a gate that lets the first reading through
func NewPersistenceGate(interval time.Duration) *PersistenceGate {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	return &PersistenceGate{interval: interval}
}

// Allow reports whether a reading completed at now should be persisted.
// When it returns true the gate already counts now as the last save.
func (g *PersistenceGate) Allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastSave.IsZero() && now.Sub(g.lastSave) < g.interval {
		return false
	}
	g.lastSave = now
	return true
}

// LastSave returns the time of the last allowed write, zero if none
func (g *PersistenceGate) LastSave() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSave
}

// Interval returns the configured save interval
func (g *PersistenceGate) Interval() time.Duration {
	return g.interval
}
