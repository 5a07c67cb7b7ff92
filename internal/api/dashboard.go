// Package api provides the display surfaces: an HTTP dashboard and a Telegram bot
package api

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abelzeko/tank-monitor/internal/classifier"
	"github.com/abelzeko/tank-monitor/internal/entities"
	"github.com/abelzeko/tank-monitor/internal/usecases"
)

// Dashboard keeps the latest display state and serves it over HTTP.
// It implements usecases.Display.
type Dashboard struct {
	mu        sync.RWMutex
	status    entities.LiveStatus
	hasStatus bool
	window    []entities.WindowedReading
	refreshed time.Time

	history *usecases.HistoryUseCase
	router  chi.Router
}

// NewDashboard creates the dashboard. history and metrics may be nil.
func NewDashboard(history *usecases.HistoryUseCase, metrics http.Handler) *Dashboard {
	d := &Dashboard{history: history}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", d.handleIndex)
	r.Get("/api/status", d.handleStatus)
	r.Get("/api/window", d.handleWindow)
	if history != nil {
		r.Get("/history", d.handleHistoryPage)
		r.Get("/api/history", d.handleHistory)
	}
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	d.router = r
	return d
}

// ShowReading implements usecases.Display
func (d *Dashboard) ShowReading(status entities.LiveStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	d.hasStatus = true
}

// ShowWindow implements usecases.Display
func (d *Dashboard) ShowWindow(window []entities.WindowedReading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.window = append(d.window[:0:0], window...)
	d.refreshed = time.Now()
}

// Status returns the latest reading pushed to the dashboard
func (d *Dashboard) Status() (entities.LiveStatus, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status, d.hasStatus
}

// Window returns the window as of the last refresh
func (d *Dashboard) Window() []entities.WindowedReading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]entities.WindowedReading(nil), d.window...)
}

func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.router.ServeHTTP(w, r)
}

type indexView struct {
	Status    entities.LiveStatus
	HasStatus bool
	Window    []entities.WindowedReading
	Refreshed string
	History   bool
}

func (d *Dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	view := indexView{
		Status:    d.status,
		HasStatus: d.hasStatus,
		Window:    append([]entities.WindowedReading(nil), d.window...),
		History:   d.history != nil,
	}
	if !d.refreshed.IsZero() {
		view.Refreshed = d.refreshed.Format("15:04:05")
	}
	d.mu.RUnlock()

	render(w, indexTemplate, view)
}

func (d *Dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := d.Status()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no reading received yet"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (d *Dashboard) handleWindow(w http.ResponseWriter, r *http.Request) {
	window := d.Window()
	if window == nil {
		window = []entities.WindowedReading{}
	}
	writeJSON(w, http.StatusOK, window)
}

type historyRowJSON struct {
	Timestamp      time.Time `json:"timestamp"`
	WaterLevelCM   float64   `json:"water_level_cm"`
	TankPercentage float64   `json:"tank_percentage"`
	RainHumidity   *int      `json:"rain_humidity"`
	TankStatus     string    `json:"tank_status"`
	LeakStatus     string    `json:"leak_status"`
}

type historyJSON struct {
	Rows          []historyRowJSON `json:"rows"`
	Count         int              `json:"count"`
	AvgLevelCM    float64          `json:"avg_level_cm"`
	AvgPercentage float64          `json:"avg_percentage"`
	AlertCount    int              `json:"alert_count"`
}

func (d *Dashboard) handleHistory(w http.ResponseWriter, r *http.Request) {
	rows, summary, err := d.history.Report(r.Context())
	if err != nil {
		log.Printf("Error loading history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}

	out := historyJSON{
		Rows:          make([]historyRowJSON, len(rows)),
		Count:         summary.Count,
		AvgLevelCM:    summary.AvgLevelCM,
		AvgPercentage: summary.AvgPercentage,
		AlertCount:    summary.AlertCount,
	}
	for i, row := range rows {
		out.Rows[i] = historyRowJSON{
			Timestamp:      row.Timestamp,
			WaterLevelCM:   row.WaterLevelCM,
			TankPercentage: row.TankPercentage,
			TankStatus:     row.TankStatus,
			LeakStatus:     row.LeakStatus,
		}
		if row.RainHumidity.Valid {
			v := row.RainHumidity.Value
			out.Rows[i].RainHumidity = &v
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type historyView struct {
	Rows       []usecases.HistoryRow
	Summary    usecases.HistorySummary
	AlertBelow float64
}

func (d *Dashboard) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	rows, summary, err := d.history.Report(r.Context())
	if err != nil {
		log.Printf("Error loading history: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	render(w, historyTemplate, historyView{Rows: rows, Summary: summary, AlertBelow: classifier.AlertBelow})
}

func render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Error rendering %s: %v", tmpl.Name(), err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

var templateFuncs = template.FuncMap{
	"localtime": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
}

var indexTemplate = template.Must(template.New("index").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head><title>Tank monitor</title></head>
<body>
<h1>Tank monitor</h1>
<div id="status">
{{- if .HasStatus}}
  <p>Tank level: <span id="level">{{printf "%.1f" .Status.WaterLevelCM}} cm</span></p>
  <p>Fill percentage: <span id="percentage">{{printf "%.1f" .Status.TankPercentage}}%</span></p>
  <p>Tank status: <span id="tank-status">{{.Status.TankStatus}}</span></p>
  <p>Leak sensor: <span id="leak-status">{{.Status.LeakStatus}}</span></p>
  <p>Updated: <span id="updated">{{localtime .Status.Timestamp}}</span></p>
{{- else}}
  <p id="waiting">Waiting for the first reading</p>
{{- end}}
</div>
<h2>Recent levels</h2>
<table id="window">
<thead><tr><th>Time (HH:MM:SS)</th><th>Level (cm)</th></tr></thead>
<tbody>
{{- range .Window}}
<tr><td>{{.TimeLabel}}</td><td>{{printf "%.1f" .WaterLevelCM}}</td></tr>
{{- end}}
</tbody>
</table>
{{- if .Refreshed}}
<p>Chart refreshed at <span id="refreshed">{{.Refreshed}}</span></p>
{{- end}}
{{- if .History}}
<p><a href="/history">Table and statistics</a></p>
{{- end}}
</body>
</html>
`))

var historyTemplate = template.Must(template.New("history").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head><title>Tank monitor history</title></head>
<body>
<h1>Saved readings</h1>
<table id="history">
<thead><tr><th>Date</th><th>Level (cm)</th><th>Percentage (%)</th><th>Status</th><th>Humidity</th><th>Leak</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{localtime .Timestamp}}</td><td>{{printf "%.1f" .WaterLevelCM}}</td><td>{{printf "%.1f" .TankPercentage}}</td><td>{{.TankStatus}}</td><td>{{.RainHumidity}}</td><td>{{.LeakStatus}}</td></tr>
{{- end}}
</tbody>
</table>
<div id="stats">
  <p>Average tank level: <span id="avg-level">{{printf "%.2f" .Summary.AvgLevelCM}}</span> cm</p>
  <p>Average fill percentage: <span id="avg-percentage">{{printf "%.2f" .Summary.AvgPercentage}}</span>%</p>
  <p>Alert readings (below {{printf "%.0f" .AlertBelow}}%): <span id="alerts">{{.Summary.AlertCount}}</span></p>
</div>
<p><a href="/">Back to the live view</a></p>
</body>
</html>
`))

var _ usecases.Display = (*Dashboard)(nil)
