// Package classifier maps raw tank and moisture values to status labels.
//
// Labels are never stored; callers classify again every time they read a value,
// so changing a band here applies to history as well.
package classifier

import "github.com/abelzeko/tank-monitor/internal/entities"

// Tank status labels
const (
	TankOptimal  = "optimal"
	TankLow      = "low"
	TankCritical = "critical — near empty"
)

// Leak status labels
const (
	LeakNone     = "no leak"
	LeakMinor    = "low humidity, possible minor leak"
	LeakPossible = "medium humidity, possible leak"
	LeakLikely   = "high humidity, leak likely"
	LeakDetected = "leak detected or rain"
	LeakUnknown  = "unknown"
)

// Tank bands, checked in descending order
const (
	TankOptimalMin = 90.0
	TankLowMin     = 70.0
)

// AlertBelow is the fill percentage under which a record counts as an alert
const AlertBelow = 30.0

type band struct {
	min   int
	label string
}

// Moisture sensor reads high when dry. Only values of 900 and up count as
// "no leak"; a raw 850 is already in the minor leak band.
var leakBands = []band{
	{900, LeakNone},
	{700, LeakMinor},
	{500, LeakPossible},
	{300, LeakLikely},
}

// TankStatus classifies a fill percentage
func TankStatus(percentage float64) string {
	switch {
	case percentage >= TankOptimalMin:
		return TankOptimal
	case percentage >= TankLowMin:
		return TankLow
	default:
		return TankCritical
	}
}

// LeakStatus classifies a raw moisture value
func LeakStatus(h entities.Humidity) string {
	if !h.Valid {
		return LeakUnknown
	}
	for _, b := range leakBands {
		if h.Value >= b.min {
			return b.label
		}
	}
	return LeakDetected
}

// IsAlert reports whether the percentage is low enough to be counted as an alert
func IsAlert(percentage float64) bool {
	return percentage < AlertBelow
}
