package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LineRead()
		m.LineRejected()
		m.TransportError()
		m.ReadingCompleted(entities.Reading{})
		m.RecordPersisted()
		m.StoreError()
		m.Purged(3)
	})
}

func TestReadingCompletedUpdatesGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ts := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

	m.ReadingCompleted(entities.Reading{
		Timestamp:      ts,
		WaterLevelCM:   45,
		TankPercentage: 70,
		RainHumidity:   entities.KnownHumidity(850),
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReadingsTotal))
	assert.Equal(t, 45.0, testutil.ToFloat64(m.WaterLevelCM))
	assert.Equal(t, 70.0, testutil.ToFloat64(m.TankPercentage))
	assert.Equal(t, 850.0, testutil.ToFloat64(m.RainHumidity))
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(m.LastReadingSeconds))

	m.ReadingCompleted(entities.Reading{Timestamp: ts, RainHumidity: entities.UnknownHumidity})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReadingsTotal))
	assert.Equal(t, -1.0, testutil.ToFloat64(m.RainHumidity))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.LineRead()
	m.LineRead()
	m.LineRejected()
	m.TransportError()
	m.RecordPersisted()
	m.StoreError()
	m.Purged(0)
	m.Purged(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransportErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsPersisted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RecordsPurged))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.LineRead()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "tank_monitor_lines_total 1")
}
