// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abelzeko/tank-monitor/internal/classifier"
	"github.com/abelzeko/tank-monitor/internal/entities"
)

// DefaultRetention is how long persisted readings are kept
const DefaultRetention = 30 * 24 * time.Hour

// HistoryStore is the part of the store the history views read from
type HistoryStore interface {
	QueryAll(ctx context.Context) ([]entities.PersistedRecord, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// HistoryRow is a persisted record with its statuses classified at read time
type HistoryRow struct {
	entities.PersistedRecord
	TankStatus string
	LeakStatus string
}

// HistorySummary holds the statistics shown under the history table
type HistorySummary struct {
	Count         int
	AvgLevelCM    float64
	AvgPercentage float64
	AlertCount    int // records below classifier.AlertBelow percent
}

// HistoryUseCase handles queries over durable readings
type HistoryUseCase struct {
	repo      HistoryStore
	retention time.Duration
}

// NewHistoryUseCase creates a new history use case
func NewHistoryUseCase(repo HistoryStore, retention time.Duration) *HistoryUseCase {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &HistoryUseCase{
		repo:      repo,
		retention: retention,
	}
}

// Records returns every persisted reading, most recent first
func (uc *HistoryUseCase) Records(ctx context.Context) ([]HistoryRow, error) {
	records, err := uc.repo.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	rows := make([]HistoryRow, len(records))
	for i, rec := range records {
		rows[i] = HistoryRow{
			PersistedRecord: rec,
			TankStatus:      classifier.TankStatus(rec.TankPercentage),
			LeakStatus:      classifier.LeakStatus(rec.RainHumidity),
		}
	}
	return rows, nil
}

// Report returns the history rows together with their summary
func (uc *HistoryUseCase) Report(ctx context.Context) ([]HistoryRow, HistorySummary, error) {
	rows, err := uc.Records(ctx)
	if err != nil {
		return nil, HistorySummary{}, err
	}
	return rows, Summarize(rows), nil
}

// Purge removes readings older than the retention period
func (uc *HistoryUseCase) Purge(ctx context.Context) (int64, error) {
	log.Printf("Purging readings older than %s", uc.retention)
	n, err := uc.repo.PurgeOlderThan(ctx, uc.retention)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old readings: %w", err)
	}
	return n, nil
}

// Summarize computes averages and the alert count over rows
func Summarize(rows []HistoryRow) HistorySummary {
	summary := HistorySummary{Count: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	var level, pct float64
	for _, row := range rows {
		level += row.WaterLevelCM
		pct += row.TankPercentage
		if classifier.IsAlert(row.TankPercentage) {
			summary.AlertCount++
		}
	}
	summary.AvgLevelCM = level / float64(len(rows))
	summary.AvgPercentage = pct / float64(len(rows))
	return summary
}

// FormatHistory renders up to limit rows and the summary for chat or terminal output.
// limit <= 0 renders every row.
func FormatHistory(rows []HistoryRow, summary HistorySummary, limit int) string {
	if len(rows) == 0 {
		return "No readings have been saved yet."
	}

	shown := rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Saved readings (%d of %d):\n\n", len(shown), len(rows)))

	for _, row := range shown {
		result.WriteString(fmt.Sprintf("🕒 %s\n", row.Timestamp.Local().Format("2006-01-02 15:04:05")))
		result.WriteString(fmt.Sprintf("💧 Level: %.1f cm (%.1f%%)\n", row.WaterLevelCM, row.TankPercentage))
		result.WriteString(fmt.Sprintf("📊 Tank: %s\n", row.TankStatus))
		if row.RainHumidity.Valid {
			result.WriteString(fmt.Sprintf("🌧️ Humidity: %s (%s)\n", row.RainHumidity, row.LeakStatus))
		}
		result.WriteString("\n")
	}

	result.WriteString(fmt.Sprintf("Average tank level: %.2f cm\n", summary.AvgLevelCM))
	result.WriteString(fmt.Sprintf("Average fill percentage: %.2f%%\n", summary.AvgPercentage))
	result.WriteString(fmt.Sprintf("Alert readings (below %.0f%%): %d", classifier.AlertBelow, summary.AlertCount))

	return result.String()
}
