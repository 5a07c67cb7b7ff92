package usecases

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

// recordLogger collects formatted log lines
type recordLogger struct {
	lines []string
}

func (l *recordLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

// recordDisplay remembers everything it was shown
type recordDisplay struct {
	readings []entities.LiveStatus
	windows  [][]entities.WindowedReading
}

func (d *recordDisplay) ShowReading(status entities.LiveStatus) {
	d.readings = append(d.readings, status)
}

func (d *recordDisplay) ShowWindow(window []entities.WindowedReading) {
	d.windows = append(d.windows, window)
}

func TestDisplaysFanOut(t *testing.T) {
	a, b := &recordDisplay{}, &recordDisplay{}
	displays := Displays{a, b}

	displays.ShowReading(entities.LiveStatus{WaterLevelCM: 45})
	displays.ShowWindow([]entities.WindowedReading{{TimeLabel: "12:00:00"}})

	for _, d := range []*recordDisplay{a, b} {
		require.Len(t, d.readings, 1)
		assert.Equal(t, 45.0, d.readings[0].WaterLevelCM)
		require.Len(t, d.windows, 1)
	}
}

func TestLogDisplay(t *testing.T) {
	logger := &recordLogger{}
	d := LogDisplay{Logger: logger}

	d.ShowReading(entities.LiveStatus{Timestamp: time.Now(), WaterLevelCM: 45, TankPercentage: 70, TankStatus: "low", LeakStatus: "unknown"})
	d.ShowWindow(nil)
	d.ShowWindow([]entities.WindowedReading{{TimeLabel: "12:00:00", WaterLevelCM: 44}, {TimeLabel: "12:00:05", WaterLevelCM: 45}})

	assert.Equal(t, []string{
		`Tank: 45.0 cm (70.0%) status="low" leak="unknown"`,
		"Window: no readings yet",
		"Window: 2 readings, latest 45.0 cm at 12:00:05",
	}, logger.lines)
}
