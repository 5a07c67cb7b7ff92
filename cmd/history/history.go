package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/abelzeko/tank-monitor/internal/classifier"
	"github.com/abelzeko/tank-monitor/internal/config"
	"github.com/abelzeko/tank-monitor/internal/repository"
	"github.com/abelzeko/tank-monitor/internal/usecases"
)

func main() {
	purge := flag.Bool("purge", false, "delete readings older than the retention period before printing")
	limit := flag.Int("n", 0, "print at most n rows (0 prints all)")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// Configure logging
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load(*envFile)
	ctx := context.Background()

	// Initialize repository
	store, err := repository.Open(ctx, repository.Config{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DBDSN,
	})
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer store.Close()

	history := usecases.NewHistoryUseCase(store, cfg.Retention())

	if *purge {
		n, err := history.Purge(ctx)
		if err != nil {
			log.Fatalf("Purge failed: %v", err)
		}
		log.Printf("Purged %d readings", n)
	}

	rows, summary, err := history.Report(ctx)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	if err := printReport(os.Stdout, rows, summary, *limit); err != nil {
		log.Fatalf("Failed to print history: %v", err)
	}
}

// printReport writes the history table followed by the statistics block
func printReport(out io.Writer, rows []usecases.HistoryRow, summary usecases.HistorySummary, limit int) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "No readings have been saved yet.")
		return err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tLEVEL (cm)\tPERCENTAGE (%)\tSTATUS\tHUMIDITY\tLEAK")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%s\t%s\t%s\n",
			row.Timestamp.Local().Format("2006-01-02 15:04:05"),
			row.WaterLevelCM,
			row.TankPercentage,
			row.TankStatus,
			row.RainHumidity,
			row.LeakStatus)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nReadings: %d\nAverage tank level: %.2f cm\nAverage fill percentage: %.2f%%\nAlert readings (below %.0f%%): %d\n",
		summary.Count, summary.AvgLevelCM, summary.AvgPercentage, classifier.AlertBelow, summary.AlertCount)
	return err
}
