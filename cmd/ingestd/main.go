// Command ingestd runs one attachment-ingestion session: it subscribes to
// the gateway event stream for a channel and persists every qualifying
// attachment into the dated partition layout until the download limit or the
// idle timeout closes the session.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slothsintel/AutoVisuals/internal/application/ingest"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/fetch"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/gateway"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/journal"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/storage"
	"github.com/slothsintel/AutoVisuals/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	provider := observability.NewProvider(&observability.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		LogLevel:            cfg.LogLevel,
		MetricsAdapter:      cfg.Metrics.Adapter,
		CloudWatchNamespace: cfg.Metrics.CloudWatchNamespace,
		CloudWatchRegion:    cfg.Metrics.CloudWatchRegion,
	})
	defer provider.Close()
	logger := provider.Logger("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting ingest daemon", observability.Fields{
		"service":     cfg.ServiceName,
		"environment": cfg.Environment,
		"channel_id":  cfg.Ingest.ChannelID,
	})

	session, cleanup, err := buildSession(ctx, cfg, provider)
	if err != nil {
		logger.Error(ctx, "startup failed", err, nil)
		return err
	}
	defer cleanup()

	stopMetrics := startMetricsServer(cfg.Metrics, provider.Logger("metrics"), session)
	defer stopMetrics()

	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// buildSession wires the stores, fetcher, journal, and gateway into a
// session. The returned cleanup releases the journal connection.
func buildSession(ctx context.Context, cfg *config.Config, provider observability.Provider) (*ingest.Session, func(), error) {
	assets, err := storage.New(ctx, cfg.Storage, cfg.Ingest.DownloadRoot,
		provider.Logger("storage"), provider.Metrics("storage"))
	if err != nil {
		return nil, nil, fmt.Errorf("asset store: %w", err)
	}
	prompts, err := storage.New(ctx, cfg.Storage, cfg.Ingest.PromptRoot,
		provider.Logger("storage"), provider.Metrics("storage"))
	if err != nil {
		return nil, nil, fmt.Errorf("prompt store: %w", err)
	}

	journalStore, err := journal.New(ctx, cfg.Journal,
		provider.Logger("journal"), provider.Metrics("journal"))
	if err != nil {
		return nil, nil, fmt.Errorf("journal: %w", err)
	}

	source, err := gateway.New(ctx, cfg.Gateway,
		provider.Logger("gateway"), provider.Metrics("gateway"))
	if err != nil {
		journalStore.Close()
		return nil, nil, fmt.Errorf("gateway: %w", err)
	}

	session := ingest.NewSession(cfg.Ingest, ingest.Deps{
		Source:  source,
		Assets:  assets,
		Prompts: prompts,
		Fetcher: fetch.NewHTTP(cfg.Fetch, provider.Logger("fetch"), provider.Metrics("fetch")),
		Journal: journalStore,
		Logger:  provider.Logger("session"),
		Metrics: provider.Metrics("session"),
	})

	cleanup := func() {
		if err := journalStore.Close(); err != nil {
			provider.Logger("journal").Warn(context.Background(), "journal close failed",
				observability.Fields{"error": err.Error()})
		}
	}
	return session, cleanup, nil
}

// startMetricsServer exposes /metrics and /healthz when a listen address is
// configured. The returned stop func shuts the server down.
func startMetricsServer(cfg config.MetricsConfig, logger observability.Logger, session *ingest.Session) func() {
	if cfg.ListenAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := session.State()
		if state == ingest.StateClosing || state == ingest.StateClosed {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = fmt.Fprintln(w, state)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn(context.Background(), "metrics server failed",
				observability.Fields{"error": err.Error()})
		}
	}()
	logger.Info(context.Background(), "metrics server listening",
		observability.Fields{"addr": cfg.ListenAddr})

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
