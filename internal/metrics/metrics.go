// Package metrics exposes Prometheus collectors for the ingestion pipeline
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	LinesTotal         prometheus.Counter
	LinesRejected      prometheus.Counter
	TransportErrors    prometheus.Counter
	ReadingsTotal      prometheus.Counter
	RecordsPersisted   prometheus.Counter
	StoreErrors        prometheus.Counter
	RecordsPurged      prometheus.Counter
	WaterLevelCM       prometheus.Gauge
	TankPercentage     prometheus.Gauge
	RainHumidity       prometheus.Gauge
	LastReadingSeconds prometheus.Gauge
}

// New registers the collectors on reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		LinesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_lines_total",
			Help: "Total number of lines read from the sensor",
		}),
		LinesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_lines_rejected_total",
			Help: "Total number of sensor lines that could not be parsed",
		}),
		TransportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_transport_errors_total",
			Help: "Total number of sensor transport faults",
		}),
		ReadingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_readings_total",
			Help: "Total number of completed readings",
		}),
		RecordsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_records_persisted_total",
			Help: "Total number of readings written to the store",
		}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_store_errors_total",
			Help: "Total number of failed store writes",
		}),
		RecordsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "tank_monitor_records_purged_total",
			Help: "Total number of records removed by the retention purge",
		}),
		WaterLevelCM: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tank_monitor_water_level_cm",
			Help: "Water level of the latest reading",
		}),
		TankPercentage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tank_monitor_tank_percentage",
			Help: "Fill percentage of the latest reading",
		}),
		RainHumidity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tank_monitor_rain_humidity_raw",
			Help: "Raw moisture value of the latest reading, -1 when unknown",
		}),
		LastReadingSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tank_monitor_last_reading_timestamp_seconds",
			Help: "Unix time of the latest completed reading",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) LineRead() {
	if m != nil {
		m.LinesTotal.Inc()
	}
}

func (m *Metrics) LineRejected() {
	if m != nil {
		m.LinesRejected.Inc()
	}
}

func (m *Metrics) TransportError() {
	if m != nil {
		m.TransportErrors.Inc()
	}
}

// ReadingCompleted counts a reading and updates the latest-value gauges
func (m *Metrics) ReadingCompleted(r entities.Reading) {
	if m == nil {
		return
	}
	m.ReadingsTotal.Inc()
	m.WaterLevelCM.Set(r.WaterLevelCM)
	m.TankPercentage.Set(r.TankPercentage)
	if r.RainHumidity.Valid {
		m.RainHumidity.Set(float64(r.RainHumidity.Value))
	} else {
		m.RainHumidity.Set(-1)
	}
	m.LastReadingSeconds.Set(float64(r.Timestamp.Unix()))
}

func (m *Metrics) RecordPersisted() {
	if m != nil {
		m.RecordsPersisted.Inc()
	}
}

func (m *Metrics) StoreError() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}

func (m *Metrics) Purged(n int64) {
	if m != nil && n > 0 {
		m.RecordsPurged.Add(float64(n))
	}
}
