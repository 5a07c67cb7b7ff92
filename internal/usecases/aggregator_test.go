package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/tank-monitor/internal/classifier"
	"github.com/abelzeko/tank-monitor/internal/entities"
)

func TestAggregatorHumidityAloneCompletesNothing(t *testing.T) {
	a := NewAggregator()

	_, ok := a.Ingest(entities.HumidityFragment{Raw: 850}, time.Now())

	assert.False(t, ok)
	assert.Equal(t, entities.KnownHumidity(850), a.PendingHumidity())
}

func TestAggregatorJoinsLastHumidity(t *testing.T) {
	a := NewAggregator()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	a.Ingest(entities.HumidityFragment{Raw: 400}, at)
	a.Ingest(entities.HumidityFragment{Raw: 850}, at)
	reading, ok := a.Ingest(entities.WaterLevelFragment{LevelCM: 45, Percentage: 70, StatusText: "Nivel bajo"}, at)

	require.True(t, ok)
	assert.Equal(t, at, reading.Timestamp)
	assert.Equal(t, 45.0, reading.WaterLevelCM)
	assert.Equal(t, 70.0, reading.TankPercentage)
	assert.Equal(t, entities.KnownHumidity(850), reading.RainHumidity)
	assert.Equal(t, "Nivel bajo", reading.SensorStatus)
	assert.Equal(t, classifier.TankLow, reading.TankStatus)
	assert.Equal(t, classifier.LeakMinor, reading.LeakStatus)
}

func TestAggregatorUnknownHumidity(t *testing.T) {
	a := NewAggregator()

	reading, ok := a.Ingest(entities.WaterLevelFragment{LevelCM: 80, Percentage: 95}, time.Now())

	require.True(t, ok)
	assert.False(t, reading.RainHumidity.Valid)
	assert.Equal(t, classifier.LeakUnknown, reading.LeakStatus)
	assert.Equal(t, classifier.TankOptimal, reading.TankStatus)
}

func TestAggregatorHumidityCarriesOver(t *testing.T) {
	a := NewAggregator()

	a.Ingest(entities.HumidityFragment{Raw: 950}, time.Now())
	first, _ := a.Ingest(entities.WaterLevelFragment{LevelCM: 10, Percentage: 20}, time.Now())
	second, _ := a.Ingest(entities.WaterLevelFragment{LevelCM: 11, Percentage: 21}, time.Now())

	assert.Equal(t, first.RainHumidity, second.RainHumidity)
	assert.Equal(t, classifier.LeakNone, second.LeakStatus)
}
