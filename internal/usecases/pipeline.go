package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/abelzeko/tank-monitor/internal/entities"
	"github.com/abelzeko/tank-monitor/internal/integration"
	"github.com/abelzeko/tank-monitor/internal/metrics"
	"github.com/abelzeko/tank-monitor/internal/parser"
)

// RecordWriter is the part of the store the pipeline writes to
type RecordWriter interface {
	Append(ctx context.Context, rec entities.PersistedRecord) error
}

// PipelineConfig tunes a Pipeline. Zero values fall back to defaults.
type PipelineConfig struct {
	WindowSize   int
	SaveInterval time.Duration
	Echo         bool // log every raw line received
	Clock        func() time.Time
	Logger       Logger
	Metrics      *metrics.Metrics
}

// Pipeline owns all ingestion state: pending fragments, the rolling window,
// the persistence gate and the latest reading. Nothing here is global.
type Pipeline struct {
	transport  integration.Transport
	store      RecordWriter
	display    Display
	aggregator *Aggregator
	window     *RollingWindow
	gate       *PersistenceGate
	metrics    *metrics.Metrics
	logger     Logger
	now        func() time.Time
	echo       bool

	mu        sync.RWMutex
	latest    entities.Reading
	hasLatest bool

	// consecutive failed readiness checks, touched only by the loop goroutine
	transportFailures int
}

const (
	minTransportBackoff = 10 * time.Millisecond
	maxTransportBackoff = time.Second
	// after the first failure, only every Nth consecutive transport error is logged
	transportErrorLogEvery = 100
)

// NewPipeline wires a pipeline reading from transport. store and display may be nil.
func NewPipeline(transport integration.Transport, store RecordWriter, display Display, cfg PipelineConfig) *Pipeline {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		transport:  transport,
		store:      store,
		display:    display,
		aggregator: NewAggregator(),
		window:     NewRollingWindow(cfg.WindowSize),
		gate:       NewPersistenceGate(cfg.SaveInterval),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        clock,
		echo:       cfg.Echo,
	}
}

// Run processes lines until ctx is cancelled. There is no delay between
// iterations; the transport's readiness check bounds how long an idle pass takes.
// Only a failing transport makes the loop back off.
func (p *Pipeline) Run(ctx context.Context) {
	p.logf("Ingestion started (window=%d, save interval=%s)", p.window.Size(), p.gate.Interval())
	for {
		select {
		case <-ctx.Done():
			p.logf("Ingestion stopped: %v", ctx.Err())
			return
		default:
		}
		p.Step(ctx)

		if delay := p.backoff(); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
}

// backoff doubles from minTransportBackoff per consecutive transport error, up to maxTransportBackoff
func (p *Pipeline) backoff() time.Duration {
	if p.transportFailures == 0 {
		return 0
	}
	delay := minTransportBackoff
	for i := 1; i < p.transportFailures && delay < maxTransportBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxTransportBackoff)
}

// Step runs one iteration of the loop. It returns false when no data was waiting.
// Every failure is logged and swallowed so that one bad line cannot stop ingestion.
func (p *Pipeline) Step(ctx context.Context) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logf("Recovered from panic while processing line: %v", r)
			handled = true
		}
	}()

	waiting, err := p.transport.BytesWaiting()
	if err != nil {
		p.metrics.TransportError()
		p.transportFailures++
		if p.transportFailures == 1 {
			p.logf("Error checking sensor input: %v", err)
		} else if p.transportFailures%transportErrorLogEvery == 0 {
			p.logf("Error checking sensor input (%d consecutive failures): %v", p.transportFailures, err)
		}
		return false
	}
	if p.transportFailures > 0 {
		p.logf("Sensor input recovered after %d failed checks", p.transportFailures)
		p.transportFailures = 0
	}
	if waiting == 0 {
		return false
	}

	line, err := p.transport.ReadLine()
	if err != nil {
		p.metrics.TransportError()
		p.logf("Error reading sensor line: %v", err)
		return true
	}
	p.metrics.LineRead()
	if p.echo {
		p.logf("Line received: %q", line)
	}

	fragment, err := parser.Parse(line)
	if err != nil {
		p.metrics.LineRejected()
		p.logf("Skipping line: %v", err)
		return true
	}

	reading, ok := p.aggregator.Ingest(fragment, p.now())
	if !ok {
		return true
	}
	p.publish(ctx, reading)
	return true
}

func (p *Pipeline) publish(ctx context.Context, reading entities.Reading) {
	p.mu.Lock()
	p.latest = reading
	p.hasLatest = true
	p.mu.Unlock()

	p.window.Push(reading.Windowed())
	p.metrics.ReadingCompleted(reading)
	if p.display != nil {
		p.display.ShowReading(reading.Live())
	}

	if !p.gate.Allow(reading.Timestamp) {
		return
	}
	p.persist(ctx, reading)
}

func (p *Pipeline) persist(ctx context.Context, reading entities.Reading) {
	if p.store == nil {
		return
	}
	if err := p.store.Append(ctx, reading.Persisted()); err != nil {
		p.metrics.StoreError()
		p.logf("Error saving reading: %v", err)
		return
	}
	p.metrics.RecordPersisted()
	p.logf("Saved reading: %.1f cm (%.1f%%) humidity=%s", reading.WaterLevelCM, reading.TankPercentage, reading.RainHumidity)
}

// RefreshDisplay pushes the current window to the display
func (p *Pipeline) RefreshDisplay() {
	if p.display == nil {
		return
	}
	p.display.ShowWindow(p.window.Snapshot())
}

// Latest returns the most recent completed reading
func (p *Pipeline) Latest() (entities.Reading, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.hasLatest
}

// Window returns the rolling window contents in arrival order
func (p *Pipeline) Window() []entities.WindowedReading {
	return p.window.Snapshot()
}

func (p *Pipeline) logf(format string, v ...any) {
	if p.logger != nil {
		p.logger.Printf(format, v...)
	}
}
