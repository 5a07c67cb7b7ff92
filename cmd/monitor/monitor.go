package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/abelzeko/tank-monitor/internal/api"
	"github.com/abelzeko/tank-monitor/internal/config"
	"github.com/abelzeko/tank-monitor/internal/integration"
	"github.com/abelzeko/tank-monitor/internal/metrics"
	"github.com/abelzeko/tank-monitor/internal/repository"
	"github.com/abelzeko/tank-monitor/internal/usecases"
)

func main() {
	echo := flag.Bool("echo", false, "log every raw line received from the sensor")
	replay := flag.String("replay", "", "read sensor lines from a file instead of the serial port")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if *listPorts {
		ports, err := integration.ListPorts()
		if err != nil {
			log.Fatalf("Failed to list serial ports: %v", err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	log.Println("Starting Tank Monitor...")
	cfg := config.Load(*envFile)
	config.Log(log.Default(), cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	// Initialize transport
	var transport integration.Transport
	if *replay != "" {
		f, err := os.Open(*replay)
		if err != nil {
			log.Fatalf("Failed to open replay file: %v", err)
		}
		defer f.Close()
		log.Printf("Replaying sensor lines from %s", *replay)
		transport = integration.NewStreamTransport(f, *replay)
	} else {
		serialTransport, err := integration.OpenSerial(integration.SerialConfig{
			Port:        cfg.SerialPort,
			BaudRate:    cfg.SerialBaud,
			ReadTimeout: cfg.SerialReadTimeout,
		})
		if err != nil {
			log.Fatalf("Failed to initialize serial transport: %v", err)
		}
		defer serialTransport.Close()
		transport = serialTransport
	}

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	history := usecases.NewHistoryUseCase(store, cfg.Retention())
	dashboard := api.NewDashboard(history, m.Handler())

	pipeline := usecases.NewPipeline(transport, store,
		usecases.Displays{dashboard, usecases.LogDisplay{Logger: log.Default()}},
		usecases.PipelineConfig{
			WindowSize:   cfg.WindowSize,
			SaveInterval: cfg.SaveInterval,
			Echo:         *echo,
			Logger:       log.Default(),
			Metrics:      m,
		})

	purge := func() {
		n, err := history.Purge(ctx)
		if err != nil {
			log.Printf("Retention purge failed: %v", err)
			return
		}
		m.Purged(n)
	}

	// Run the purge immediately on startup
	purge()

	// Set up cron scheduler for display refresh and retention
	c := cron.New()
	if _, err := c.AddFunc(cfg.RefreshSchedule, pipeline.RefreshDisplay); err != nil {
		log.Fatalf("Failed to set up refresh job: %v", err)
	}
	if _, err := c.AddFunc(cfg.PurgeSchedule, purge); err != nil {
		log.Fatalf("Failed to set up purge job: %v", err)
	}
	c.Start()
	defer c.Stop()
	log.Printf("Display refresh scheduled %q, purge scheduled %q", cfg.RefreshSchedule, cfg.PurgeSchedule)

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           dashboard,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("Dashboard listening on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Dashboard server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down dashboard: %v", err)
			}
		}()
	}

	if cfg.TelegramToken != "" {
		bot, err := api.NewTelegramBot(cfg.TelegramToken, pipeline, history)
		if err != nil {
			log.Printf("Telegram bot disabled: %v", err)
		} else {
			go bot.Start(ctx)
		}
	}

	// Start ingestion in its own goroutine
	done := make(chan struct{})
	go func() {
		defer close(done)
		pipeline.Run(ctx)
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	<-done
	log.Println("Tank Monitor stopped")
}
