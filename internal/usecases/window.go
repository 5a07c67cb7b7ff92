package usecases

import (
	"sync"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

// DefaultWindowSize is how many recent readings the live chart keeps
const DefaultWindowSize = 10

// RollingWindow is a bounded FIFO of recent readings for live display
type RollingWindow struct {
	mu      sync.RWMutex
	size    int
	entries []entities.WindowedReading
}

// NewRollingWindow creates a window holding at most size entries
func NewRollingWindow(size int) *RollingWindow {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &RollingWindow{
		size:    size,
		entries: make([]entities.WindowedReading, 0, size+1),
	}
}

// Push appends to the tail and evicts from the head once the window is full
func (w *RollingWindow) Push(r entities.WindowedReading) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, r)
	if over := len(w.entries) - w.size; over > 0 {
		copy(w.entries, w.entries[over:])
		w.entries = w.entries[:w.size]
	}
}

// Snapshot returns a copy of the window in arrival order
func (w *RollingWindow) Snapshot() []entities.WindowedReading {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]entities.WindowedReading, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the number of entries currently held
func (w *RollingWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}

// Size returns the window capacity
func (w *RollingWindow) Size() int {
	return w.size
}
