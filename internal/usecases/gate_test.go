package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceGateSequence(t *testing.T) {
	g := NewPersistenceGate(60 * time.Second)
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	var allowed []int
	for _, s := range []int{0, 10, 30, 61, 90} {
		if g.Allow(start.Add(time.Duration(s) * time.Second)) {
			allowed = append(allowed, s)
		}
	}

	assert.Equal(t, []int{0, 61}, allowed)
	assert.Equal(t, start.Add(61*time.Second), g.LastSave())
}

func TestPersistenceGateExactInterval(t *testing.T) {
	g := NewPersistenceGate(time.Minute)
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.Allow(start))
	assert.False(t, g.Allow(start.Add(time.Minute-time.Nanosecond)))
	assert.True(t, g.Allow(start.Add(time.Minute)))
}

func TestPersistenceGateFirstReadingPasses(t *testing.T) {
	g := NewPersistenceGate(0)

	assert.Equal(t, DefaultSaveInterval, g.Interval())
	assert.True(t, g.LastSave().IsZero())
	assert.True(t, g.Allow(time.Now()))
}
