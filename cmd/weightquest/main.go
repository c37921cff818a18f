package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	adapthttp "weightquest/internal/adapter/http"
	"weightquest/internal/adapter/memory"
	"weightquest/internal/adapter/notify"
	"weightquest/internal/adapter/postgres"
	"weightquest/internal/adapter/sqlite"
	"weightquest/internal/app"
	"weightquest/internal/config"
	"weightquest/internal/domain"
	"weightquest/internal/events"
	"weightquest/internal/logging"
	"weightquest/internal/metrics"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

// storage is a persistence backend with its repositories.
type storage struct {
	progress domain.ProgressRepository
	users    domain.UserRepository
	sessions domain.SessionRepository
	closer   io.Closer
}

func main() {
	configPath := flag.String("config", "weightquest.toml", "path to an optional TOML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	hostname, _ := os.Hostname()
	closeLogs := logging.Setup(logging.SetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: hostname,
	})
	defer closeLogs()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Error("weightquest stopped")
		closeLogs()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.closer.Close()) }()

	bus := events.NewBus()
	progressStore := app.NewProgressStore(store.progress)
	progressSvc := app.NewProgressService(progressStore, bus)
	chartsSvc := app.NewChartsService(progressStore)
	authSvc := app.NewAuthService(store.users, store.sessions)

	srv := adapthttp.New(progressSvc, chartsSvc, authSvc, cfg.WebDir)
	if cfg.AuthDisabled {
		srv.WithoutAuth()
	}
	if cfg.DevMode {
		srv.WithDevTools()
	}
	if cfg.OIDCEnabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
	}

	var m *metrics.Manager
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.NewManager("weightquest", "server", reg)
		m.Observe(bus)
		srv.WithMetrics(m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	if len(cfg.NotifyURLs) > 0 {
		dispatcher := notify.NewDispatcher(cfg.NotifyURLs, bus, notify.ShoutrrrSender{}, m)
		dispatcher.Start()
		defer dispatcher.Stop()
	}

	if !cfg.AuthDisabled {
		go purgeSessions(ctx, authSvc)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":    cfg.Addr,
			"storage": cfg.Storage,
			"auth":    !cfg.AuthDisabled,
		}).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &storage{progress: db, users: db, sessions: postgres.NewSessionRepo(db), closer: db}, nil
	case config.StorageMemory:
		db := memory.New()
		return &storage{progress: db, users: db, sessions: db.NewSessionRepo(), closer: nopCloser{}}, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &storage{progress: db, users: db, sessions: sqlite.NewSessionRepo(db), closer: db}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func purgeSessions(ctx context.Context, authSvc *app.AuthService) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authSvc.PurgeExpired(ctx); err != nil {
				log.WithError(err).Warn("purge expired sessions")
			}
		}
	}
}
