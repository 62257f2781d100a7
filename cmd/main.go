package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/org-relay/config"
	"github.com/angeloszaimis/org-relay/internal/handler"
	"github.com/angeloszaimis/org-relay/internal/httpserver"
	"github.com/angeloszaimis/org-relay/internal/metrics"
	"github.com/angeloszaimis/org-relay/internal/upstream"
	"github.com/angeloszaimis/org-relay/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level, cfg.Logging.AddSource, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	timeouts, err := buildTimeouts(cfg.Server)
	if err != nil {
		log.Error("Invalid server timeouts", slog.Any("err", err))
		os.Exit(1)
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()

	metricsCollector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	metricsCollector.Start(metricsCtx)

	client := upstream.New(upstream.OrgURL)
	relayHandler := handler.NewRelayHandler(log, client, metricsCollector)

	router := setupRouter(log, relayHandler, handler.NewHealthHandler(), metricsCollector)

	srv, err := httpserver.New(cfg.Server.Address, router, timeouts)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Relay listening",
			slog.String("addr", srv.Addr()),
			slog.String("upstream", client.Target()))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		gracefulShutdown(log, srv, metricsCollector, stopMetrics)
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting relay", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// gracefulShutdown lets in-flight relays finish before the collector is
// stopped, so their events are still counted.
func gracefulShutdown(log *slog.Logger, srv *httpserver.Server, collector *metrics.Collector, stopMetrics context.CancelFunc) {
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("Error during shutdown", slog.Any("err", err))
	}

	stopMetrics()
	<-collector.Done()
}

func buildTimeouts(sc config.ServerConfig) (httpserver.Timeouts, error) {
	var (
		t   httpserver.Timeouts
		err error
	)

	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"read_timeout", sc.ReadTimeout, &t.Read},
		{"write_timeout", sc.WriteTimeout, &t.Write},
		{"idle_timeout", sc.IdleTimeout, &t.Idle},
		{"shutdown_timeout", sc.ShutdownTimeout, &t.Shutdown},
	}

	for _, f := range fields {
		if *f.dst, err = time.ParseDuration(f.value); err != nil {
			return httpserver.Timeouts{}, fmt.Errorf("parsing %s: %w", f.name, err)
		}
	}

	return t, nil
}
