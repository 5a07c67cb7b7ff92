package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/tank-monitor/internal/classifier"
	"github.com/abelzeko/tank-monitor/internal/entities"
)

type stubHistoryStore struct {
	records  []entities.PersistedRecord
	err      error
	purged   int64
	purgeAge time.Duration
}

func (s *stubHistoryStore) QueryAll(ctx context.Context) ([]entities.PersistedRecord, error) {
	return s.records, s.err
}

func (s *stubHistoryStore) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.purgeAge = age
	return s.purged, s.err
}

func historyRecords() []entities.PersistedRecord {
	return []entities.PersistedRecord{
		{ID: 3, Timestamp: epoch.Add(2 * time.Minute), WaterLevelCM: 10, TankPercentage: 15, RainHumidity: entities.KnownHumidity(200)},
		{ID: 2, Timestamp: epoch.Add(time.Minute), WaterLevelCM: 45, TankPercentage: 70, RainHumidity: entities.KnownHumidity(850)},
		{ID: 1, Timestamp: epoch, WaterLevelCM: 80, TankPercentage: 95},
	}
}

func TestHistoryRecordsClassifiesOnRead(t *testing.T) {
	uc := NewHistoryUseCase(&stubHistoryStore{records: historyRecords()}, 0)

	rows, err := uc.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(3), rows[0].ID)
	assert.Equal(t, classifier.TankCritical, rows[0].TankStatus)
	assert.Equal(t, classifier.LeakDetected, rows[0].LeakStatus)
	assert.Equal(t, classifier.TankLow, rows[1].TankStatus)
	assert.Equal(t, classifier.LeakMinor, rows[1].LeakStatus)
	assert.Equal(t, classifier.TankOptimal, rows[2].TankStatus)
	assert.Equal(t, classifier.LeakUnknown, rows[2].LeakStatus)
}

func TestHistoryReport(t *testing.T) {
	uc := NewHistoryUseCase(&stubHistoryStore{records: historyRecords()}, 0)

	rows, summary, err := uc.Report(context.Background())
	require.NoError(t, err)

	assert.Len(t, rows, 3)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 45.0, summary.AvgLevelCM, 1e-9)
	assert.InDelta(t, 60.0, summary.AvgPercentage, 1e-9)
	assert.Equal(t, 1, summary.AlertCount)
}

func TestHistoryStoreError(t *testing.T) {
	boom := errors.New("no such table: readings")
	uc := NewHistoryUseCase(&stubHistoryStore{err: boom}, 0)

	_, _, err := uc.Report(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = uc.Purge(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestHistoryPurgeUsesRetention(t *testing.T) {
	store := &stubHistoryStore{purged: 4}
	uc := NewHistoryUseCase(store, 7*24*time.Hour)

	n, err := uc.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 7*24*time.Hour, store.purgeAge)

	_, err = NewHistoryUseCase(store, 0).Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultRetention, store.purgeAge)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, HistorySummary{}, Summarize(nil))
}

func TestFormatHistory(t *testing.T) {
	uc := NewHistoryUseCase(&stubHistoryStore{records: historyRecords()}, 0)
	rows, summary, err := uc.Report(context.Background())
	require.NoError(t, err)

	text := FormatHistory(rows, summary, 2)

	assert.Contains(t, text, "Saved readings (2 of 3)")
	assert.Contains(t, text, "💧 Level: 10.0 cm (15.0%)")
	assert.Contains(t, text, "🌧️ Humidity: 850 ("+classifier.LeakMinor+")")
	assert.NotContains(t, text, "80.0 cm")
	assert.Contains(t, text, "Average tank level: 45.00 cm")
	assert.Contains(t, text, "Average fill percentage: 60.00%")
	assert.Contains(t, text, "Alert readings (below 30%): 1")

	assert.Contains(t, FormatHistory(rows, summary, 0), "Saved readings (3 of 3)")
}

func TestFormatHistoryEmpty(t *testing.T) {
	assert.Equal(t, "No readings have been saved yet.", FormatHistory(nil, HistorySummary{}, 5))
}
