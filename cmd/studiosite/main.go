// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/studiosite/internal/auth"
	"github.com/olegiv/studiosite/internal/config"
	"github.com/olegiv/studiosite/internal/geoip"
	"github.com/olegiv/studiosite/internal/handler/api"
	"github.com/olegiv/studiosite/internal/imagehost"
	"github.com/olegiv/studiosite/internal/imaging"
	"github.com/olegiv/studiosite/internal/logging"
	"github.com/olegiv/studiosite/internal/mailrelay"
	"github.com/olegiv/studiosite/internal/middleware"
	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/notify"
	"github.com/olegiv/studiosite/internal/service"
	"github.com/olegiv/studiosite/internal/settings"
	"github.com/olegiv/studiosite/internal/store"
	"github.com/olegiv/studiosite/internal/version"
	"github.com/olegiv/studiosite/internal/visitor"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin and print its hash for STUDIO_ADMIN_PASSWORD_HASH")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "studiosite - studio marketing site and back-office API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_JWT_SECRET           Admin token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_ADMIN_PASSWORD_HASH  Admin password hash (required, see -hash-password)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_ADMIN_EMAIL          Admin login email (default: admin@example.com)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_DB_DRIVER            Store driver: sqlite|postgres (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_DB_PATH              SQLite database path (default: ./data/studio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_DB_DSN               Postgres connection string\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_REDIS_URL            Redis URL for change fan-out across instances (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_RELAY_URL            Email relay endpoint (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_IMAGE_BACKEND        Image storage: local|s3 (default: local)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_GEOIP_DB_PATH        GeoLite2 country database (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Println(versionInfo)
		os.Exit(0)
	}

	if *hashPassword {
		if err := printPasswordHash(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func printPasswordHash() error {
	_, _ = fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, _ = fmt.Println(hash)
	return nil
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	// The store logs through the plain handler so its own failures are never
	// written back into the store.
	storeLogger := slog.New(textHandler)
	slog.SetDefault(storeLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DBDriver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.StoreDSN())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready", "dialect", db.Dialect().Name)

	storeOpts := []store.Option{store.WithLogger(storeLogger)}
	if cfg.UseRedis() {
		broker, err := store.NewRedisBroker(ctx, store.RedisBrokerOptions{
			URL:            cfg.RedisURL,
			Prefix:         cfg.RedisPrefix,
			ConnectTimeout: 5 * time.Second,
		}, storeLogger)
		if err != nil {
			return fmt.Errorf("connecting change broker: %w", err)
		}
		storeOpts = append(storeOpts, store.WithBroker(broker))
		slog.Info("change broker initialized", "backend", "redis")
	}
	docs := store.NewDocuments(db, storeOpts...)
	defer func() {
		if err := docs.Broker().Close(); err != nil {
			slog.Error("error closing change broker", "error", err)
		}
	}()

	// Upgrade logger to also write WARN and ERROR logs to the event log
	events := service.NewEventService(docs)
	logger := slog.New(logging.NewEventLogHandler(textHandler, events))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")
	if versionInfo.Dev() && !cfg.IsDevelopment() {
		slog.Warn("running an untagged build in production", "commit", versionInfo.GitCommit)
	}
	if err := events.LogInfo(ctx, model.EventCategorySystem, "Server started",
		map[string]any{"version": versionInfo.Version, "commit": versionInfo.GitCommit}); err != nil {
		slog.ErrorContext(logging.WithoutEventLog(ctx), "failed to record startup event", "error", err)
	}

	provider := settings.NewProvider(docs, nil, logger)
	if err := provider.Start(ctx); err != nil {
		return fmt.Errorf("starting settings provider: %w", err)
	}
	defer provider.Stop()
	loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := provider.WaitLoaded(loadCtx); err != nil {
		slog.Warn("serving default site settings until the first snapshot arrives", "error", err)
	}
	loadCancel()

	// Only a dispatcher that exists may be stored in the interface.
	var notifier service.Notifier
	if cfg.RelayEnabled() {
		client := mailrelay.NewClient(cfg.RelayURL, cfg.RelaySecret, cfg.RelayTimeout)
		dispatcher := mailrelay.NewDispatcher(client, func() (string, string) {
			s := provider.Current()
			return s.AdminEmail, s.SiteName
		}, logger, mailrelay.Config{Workers: cfg.RelayWorkers, QueueSize: mailrelay.DefaultConfig().QueueSize})
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		notifier = dispatcher
		slog.Info("email relay enabled", "workers", cfg.RelayWorkers, "timeout", cfg.RelayTimeout)
	} else {
		slog.Warn("email relay not configured; submissions are stored without notification")
	}

	hub := notify.NewHub()
	listener := notify.NewListener(docs, hub, notify.WithWindow(cfg.AlertWindow), notify.WithLogger(logger))
	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("starting alert listener: %w", err)
	}
	defer listener.Stop()

	var countries visitor.CountryResolver
	var lookup *geoip.Lookup
	if cfg.GeoIPEnabled() {
		lookup, err = geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("GeoIP database unavailable", "path", cfg.GeoIPDBPath, "error", err)
			lookup = nil
		} else {
			defer func() { _ = lookup.Close() }()
			countries = lookup
			slog.Info("GeoIP lookup enabled", "path", cfg.GeoIPDBPath)
		}
	}

	images, uploadsDir, err := newImageHost(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tokens := auth.NewJWTManager(cfg.JWTSecret, "studiosite", cfg.TokenTTL)
	admin, err := auth.NewAdmin(cfg.AdminEmail, cfg.AdminPasswordHash, tokens)
	if err != nil {
		return fmt.Errorf("configuring admin account: %w", err)
	}

	logins := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer logins.Close()

	publicLimiter := middleware.NewRateLimiter(0.2, 5)
	limiterDone := make(chan struct{})
	defer close(limiterDone)
	go publicLimiter.Cleanup(10*time.Minute, limiterDone)

	h := api.NewHandler(api.Deps{
		DB:         db,
		Contacts:   service.NewContactService(docs, notifier, logger),
		Inquiries:  service.NewInquiryService(docs, notifier, logger),
		Orders:     service.NewOrderService(docs, logger),
		Products:   service.NewProductService(docs, logger),
		ReadySites: service.NewReadySiteService(docs),
		Tools:      service.NewToolService(docs),
		Settings:   service.NewSettingsService(docs, logger),
		Events:     events,
		Provider:   provider,
		Alerts:     listener,
		Hub:        hub,
		Images:     images,
		Visitors:   visitor.NewResolver(countries),
		Admin:      admin,
		Logins:     logins,
		Version:    versionInfo,
		Logger:     logger,
	})

	security := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	security.ExcludePaths = []string{strings.TrimSuffix(cfg.UploadsURL, "/") + "/"}

	router := h.Router(api.RouterConfig{
		Security:       security,
		CSRF:           middleware.DefaultCSRFConfig([]byte(cfg.JWTSecret)[:32], cfg.TrustedOrigins, cfg.IsDevelopment()),
		PublicLimiter:  publicLimiter,
		RequestTimeout: 30 * time.Second,
		UploadsDir:     uploadsDir,
		UploadsURL:     cfg.UploadsURL,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      0, // Event streams stay open; other routes are bounded by middleware.Timeout
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	srv.RegisterOnShutdown(h.CloseStreams)

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

wait:
	for {
		select {
		case <-hup:
			// SIGHUP picks up a refreshed GeoIP database without a restart.
			if lookup != nil {
				if err := lookup.Reload(); err != nil {
					slog.Warn("GeoIP reload failed", "error", err)
				} else {
					slog.Info("GeoIP database reloaded")
				}
			}
		case <-quit:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newImageHost builds the uploader for the configured backend. The returned
// directory is non-empty when images are served from local disk.
func newImageHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*imagehost.Uploader, string, error) {
	processor := imaging.NewProcessor(cfg.ImageMaxDimension)

	if cfg.ImageBackend == config.ImageBackendS3 {
		backend, err := imagehost.NewS3Backend(imagehost.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("configuring image bucket: %w", err)
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := backend.EnsureBucket(ensureCtx); err != nil {
			return nil, "", fmt.Errorf("preparing image bucket: %w", err)
		}
		slog.Info("image host initialized", "backend", "s3", "bucket", cfg.S3Bucket)
		return imagehost.NewUploader(backend, processor, logger), "", nil
	}

	backend, err := imagehost.NewLocalBackend(cfg.UploadsDir, strings.TrimSuffix(cfg.UploadsURL, "/"))
	if err != nil {
		return nil, "", fmt.Errorf("configuring uploads directory: %w", err)
	}
	slog.Info("image host initialized", "backend", "local", "dir", backend.Dir())
	return imagehost.NewUploader(backend, processor, logger), backend.Dir(), nil
}
