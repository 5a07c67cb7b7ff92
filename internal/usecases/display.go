package usecases

import (
	"github.com/abelzeko/tank-monitor/internal/entities"
)

// Logger is the subset of *log.Logger the use cases write to
type Logger interface {
	Printf(format string, v ...any)
}

// Display receives live updates from the pipeline. Implementations must be safe
// to call from the ingestion goroutine and the refresh schedule concurrently.
type Display interface {
	// ShowReading is called for every completed reading
	ShowReading(status entities.LiveStatus)
	// ShowWindow is called on each refresh tick with the rolling window contents
	ShowWindow(window []entities.WindowedReading)
}

// Displays fans updates out to several displays
type Displays []Display

func (d Displays) ShowReading(status entities.LiveStatus) {
	for _, display := range d {
		display.ShowReading(status)
	}
}

func (d Displays) ShowWindow(window []entities.WindowedReading) {
	for _, display := range d {
		display.ShowWindow(window)
	}
}

// LogDisplay writes updates to a logger, for running without any UI attached
type LogDisplay struct {
	Logger Logger
}

func (d LogDisplay) ShowReading(status entities.LiveStatus) {
	d.Logger.Printf("Tank: %.1f cm (%.1f%%) status=%q leak=%q",
		status.WaterLevelCM, status.TankPercentage, status.TankStatus, status.LeakStatus)
}

func (d LogDisplay) ShowWindow(window []entities.WindowedReading) {
	if len(window) == 0 {
		d.Logger.Printf("Window: no readings yet")
		return
	}
	last := window[len(window)-1]
	d.Logger.Printf("Window: %d readings, latest %.1f cm at %s", len(window), last.WaterLevelCM, last.TimeLabel)
}

var (
	_ Display = Displays(nil)
	_ Display = LogDisplay{}
)
