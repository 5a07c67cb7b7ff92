// Package entities contains the core domain objects for the tank-monitor application
package entities

import (
	"strconv"
	"time"
)

// WindowTimeLayout is the clock label shown for entries of the rolling window
const WindowTimeLayout = "15:04:05"

// Fragment is one partial sample carried by a single sensor line.
// It is implemented by WaterLevelFragment and HumidityFragment only.
type Fragment interface {
	fragment()
}

// WaterLevelFragment is the payload of a "Nivel de agua" line
type WaterLevelFragment struct {
	LevelCM    float64 // Water level in cm
	Percentage float64 // Fill percentage reported by the sensor
	StatusText string  // Free-text status as sent by the sensor
}

// HumidityFragment is the payload of a "Humedad" line
type HumidityFragment struct {
	Raw int // Raw moisture sensor units
}

func (WaterLevelFragment) fragment() {}
func (HumidityFragment) fragment()   {}

// Humidity is a raw moisture value that may not have been observed yet.
// The zero value means unknown.
type Humidity struct {
	Value int
	Valid bool
}

// UnknownHumidity is used when no humidity line has been seen
var UnknownHumidity = Humidity{}

// KnownHumidity wraps an observed raw value
func KnownHumidity(v int) Humidity {
	return Humidity{Value: v, Valid: true}
}

func (h Humidity) String() string {
	if !h.Valid {
		return "unknown"
	}
	return strconv.Itoa(h.Value)
}

// Reading is one completed, timestamped telemetry record
type Reading struct {
	Timestamp      time.Time
	WaterLevelCM   float64
	TankPercentage float64
	RainHumidity   Humidity
	SensorStatus   string // Status text sent by the sensor itself
	TankStatus     string // Derived from TankPercentage
	LeakStatus     string // Derived from RainHumidity
}

// Windowed projects the reading to its rolling window entry
func (r Reading) Windowed() WindowedReading {
	return WindowedReading{
		TimeLabel:    r.Timestamp.Format(WindowTimeLayout),
		WaterLevelCM: r.WaterLevelCM,
	}
}

// Persisted projects the reading to its durable row. Derived statuses are dropped.
func (r Reading) Persisted() PersistedRecord {
	return PersistedRecord{
		Timestamp:      r.Timestamp,
		WaterLevelCM:   r.WaterLevelCM,
		TankPercentage: r.TankPercentage,
		RainHumidity:   r.RainHumidity,
	}
}

// Live returns what the display receives for this reading
func (r Reading) Live() LiveStatus {
	return LiveStatus{
		Timestamp:      r.Timestamp,
		WaterLevelCM:   r.WaterLevelCM,
		TankPercentage: r.TankPercentage,
		TankStatus:     r.TankStatus,
		LeakStatus:     r.LeakStatus,
	}
}

// WindowedReading is an entry of the rolling window
type WindowedReading struct {
	TimeLabel    string  `json:"time"`
	WaterLevelCM float64 `json:"water_level_cm"`
}

// PersistedRecord is a durable row in the reading store
type PersistedRecord struct {
	ID             int64
	Timestamp      time.Time
	WaterLevelCM   float64
	TankPercentage float64
	RainHumidity   Humidity
}

// LiveStatus is pushed to display consumers on each completed reading
type LiveStatus struct {
	Timestamp      time.Time `json:"timestamp"`
	WaterLevelCM   float64   `json:"water_level_cm"`
	TankPercentage float64   `json:"tank_percentage"`
	TankStatus     string    `json:"tank_status"`
	LeakStatus     string    `json:"leak_status"`
}
