package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/tagbridge/pkg/bridge"
	"github.com/cuemby/tagbridge/pkg/config"
	"github.com/cuemby/tagbridge/pkg/events"
	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/cuemby/tagbridge/pkg/looper"
	"github.com/cuemby/tagbridge/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a bridge and expose metrics and health endpoints",
	Long: `Start a bridge with a designated loop and a worker pool, and serve
/metrics, /health, /ready and /live until interrupted.

Dead handles are swept on --prune-interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			cfg.MetricsAddr = addr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		pruneInterval, _ := cmd.Flags().GetDuration("prune-interval")

		log.Init(cfg.LogConfig())
		return serve(cmd.Context(), cfg, pruneInterval)
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "", "Address for metrics and health endpoints (overrides config)")
	serveCmd.Flags().Duration("prune-interval", time.Minute, "Interval between dead handle sweeps")
}

func serve(ctx context.Context, cfg *config.Config, pruneInterval time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := log.WithComponent("serve")
	metrics.SetVersion(Version)

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	go logEvents(sub)

	loop := looper.New()
	loop.Start(ctx)
	metrics.RegisterComponent(metrics.ComponentLooper, true, "running")

	b := bridge.New(
		bridge.WithLooper(loop),
		bridge.WithWorkers(cfg.Workers),
		bridge.WithBroker(broker),
	)
	metrics.RegisterComponent(metrics.ComponentWorkers, true, fmt.Sprintf("%d workers", cfg.Workers))

	collector := metrics.NewCollector(b, cfg.CollectInterval)
	collector.Start()
	defer collector.Stop()

	go prune(ctx, b, pruneInterval)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())

	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server error: %v", err)
		}
	}()

	logger.Info().
		Str("addr", cfg.MetricsAddr).
		Int("workers", cfg.Workers).
		Msg("Bridge serving")
	fmt.Printf("Serving metrics and health on %s. Press Ctrl+C to stop.\n", cfg.MetricsAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Metrics server shutdown failed")
	}

	metrics.UpdateComponent(metrics.ComponentWorkers, false, "stopped")
	b.Close()
	metrics.UpdateComponent(metrics.ComponentLooper, false, "stopped")
	loop.Stop()
	<-loop.Done()

	fmt.Println("✓ Shutdown complete")
	return runErr
}

func prune(ctx context.Context, b *bridge.Bridge, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.PruneDead()
		case <-ctx.Done():
			return
		}
	}
}

func logEvents(sub events.Subscriber) {
	logger := log.WithComponent("events")
	for ev := range sub {
		logger.Debug().
			Str("event_id", ev.ID).
			Str("type", string(ev.Type)).
			Str("tag", ev.Tag).
			Str("message", ev.Message).
			Msg("Bridge event")
	}
}
