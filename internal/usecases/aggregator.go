package usecases

import (
	"sync"
	"time"

	"github.com/abelzeko/tank-monitor/internal/classifier"
	"github.com/abelzeko/tank-monitor/internal/entities"
)

// Aggregator joins fragments arriving on separate lines into complete readings.
// The join is last-value-wins: a water level line completes a reading at once with
// whatever humidity was seen last, it never waits for a matching humidity line.
type Aggregator struct {
	mu       sync.Mutex
	humidity entities.Humidity
}

// NewAggregator creates an aggregator with no pending humidity
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Ingest folds a fragment into the pending state. It returns a reading only for
// water level fragments.
func (a *Aggregator) Ingest(fragment entities.Fragment, at time.Time) (entities.Reading, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch f := fragment.(type) {
	case entities.HumidityFragment:
		a.humidity = entities.KnownHumidity(f.Raw)
		return entities.Reading{}, false
	case entities.WaterLevelFragment:
		return entities.Reading{
			Timestamp:      at,
			WaterLevelCM:   f.LevelCM,
			TankPercentage: f.Percentage,
			RainHumidity:   a.humidity,
			SensorStatus:   f.StatusText,
			TankStatus:     classifier.TankStatus(f.Percentage),
			LeakStatus:     classifier.LeakStatus(a.humidity),
		}, true
	default:
		return entities.Reading{}, false
	}
}

// PendingHumidity returns the last humidity value seen
func (a *Aggregator) PendingHumidity() entities.Humidity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.humidity
}
