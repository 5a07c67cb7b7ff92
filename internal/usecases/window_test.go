package usecases

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

func entry(i int) entities.WindowedReading {
	return entities.WindowedReading{TimeLabel: fmt.Sprintf("12:00:%02d", i), WaterLevelCM: float64(i)}
}

func TestRollingWindowEvictsOldest(t *testing.T) {
	w := NewRollingWindow(10)

	for i := 1; i <= 11; i++ {
		w.Push(entry(i))
	}

	got := w.Snapshot()
	require.Len(t, got, 10)
	for i, e := range got {
		assert.Equal(t, entry(i+2), e)
	}
}

func TestRollingWindowBelowCapacity(t *testing.T) {
	w := NewRollingWindow(3)
	w.Push(entry(1))
	w.Push(entry(2))

	assert.Equal(t, []entities.WindowedReading{entry(1), entry(2)}, w.Snapshot())
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 3, w.Size())
}

func TestRollingWindowDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewRollingWindow(0).Size())
	assert.Equal(t, DefaultWindowSize, NewRollingWindow(-4).Size())
}

func TestRollingWindowSnapshotIsCopy(t *testing.T) {
	w := NewRollingWindow(2)
	w.Push(entry(1))

	snap := w.Snapshot()
	snap[0].WaterLevelCM = 99

	assert.Equal(t, 1.0, w.Snapshot()[0].WaterLevelCM)
}

func TestRollingWindowConcurrentPush(t *testing.T) {
	w := NewRollingWindow(5)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.Push(entry(i))
				w.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, w.Len())
}
