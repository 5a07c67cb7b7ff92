// Package parser turns raw sensor lines into typed fragments
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

const (
	waterLevelMarker = "Nivel de agua:"
	humidityMarker   = "Humedad: "

	levelToken      = 3
	percentageToken = 5
	statusToken     = 7
)

// ErrUnrecognized is wrapped by every ParseError
var ErrUnrecognized = errors.New("unrecognized line")

// ErrNotFinite is the cause of a ParseError for NaN or infinite numbers
var ErrNotFinite = errors.New("value is not a finite number")

// ParseError reports a line that was rejected
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %s: %v", ErrUnrecognized, e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %q: %s", ErrUnrecognized, e.Line, e.Reason)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnrecognized, e.Err}
	}
	return []error{ErrUnrecognized}
}

func reject(line, reason string, err error) (entities.Fragment, error) {
	return nil, &ParseError{Line: line, Reason: reason, Err: err}
}

// Parse classifies a single line. It never panics; anything it cannot read
// comes back as a *ParseError and a nil fragment.
//
// Water level lines look like
//
//	Nivel de agua: 45 cm (70%) - Nivel bajo
//
// and humidity lines like
//
//	Humedad: 850
func Parse(line string) (entities.Fragment, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return reject(line, "empty line", nil)
	}

	switch {
	case strings.Contains(line, waterLevelMarker):
		return parseWaterLevel(line)
	case strings.Contains(line, humidityMarker):
		return parseHumidity(line)
	}
	return reject(line, "no known marker", nil)
}

func parseWaterLevel(line string) (entities.Fragment, error) {
	parts := strings.Split(line, " ")
	if len(parts) <= percentageToken {
		return reject(line, fmt.Sprintf("expected at least %d tokens, got %d", percentageToken+1, len(parts)), nil)
	}

	level, err := parseFinite(parts[levelToken])
	if err != nil {
		return reject(line, "invalid level", err)
	}

	pct := parts[percentageToken]
	if !strings.HasPrefix(pct, "(") || !strings.HasSuffix(pct, "%)") {
		return reject(line, fmt.Sprintf("percentage token %q is not of the form (NN%%)", pct), nil)
	}
	percentage, err := parseFinite(pct[1 : len(pct)-2])
	if err != nil {
		return reject(line, "invalid percentage", err)
	}

	var status string
	if len(parts) > statusToken {
		status = strings.Join(parts[statusToken:], " ")
	}

	return entities.WaterLevelFragment{
		LevelCM:    level,
		Percentage: percentage,
		StatusText: status,
	}, nil
}

// parseFinite is strconv.ParseFloat without NaN and infinities
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

func parseHumidity(line string) (entities.Fragment, error) {
	idx := strings.Index(line, humidityMarker)
	raw, err := strconv.Atoi(strings.TrimSpace(line[idx+len(humidityMarker):]))
	if err != nil {
		return reject(line, "invalid humidity", err)
	}
	return entities.HumidityFragment{Raw: raw}, nil
}

// FormatWaterLevelLine renders the sentence the sensor sends for a water level sample
func FormatWaterLevelLine(levelCM, percentage float64, status string) string {
	line := fmt.Sprintf("%s %s cm (%s%%) -", waterLevelMarker,
		strconv.FormatFloat(levelCM, 'f', -1, 64),
		strconv.FormatFloat(percentage, 'f', -1, 64))
	if status != "" {
		line += " " + status
	}
	return line
}

// FormatHumidityLine renders the sentence the sensor sends for a humidity sample
func FormatHumidityLine(raw int) string {
	return humidityMarker + strconv.Itoa(raw)
}
