package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dialer_backend/internal/campaign"
	"dialer_backend/internal/campaign/handler"
	"dialer_backend/internal/campaign/lease"
	"dialer_backend/internal/config"
	"dialer_backend/internal/events"
	apphttp "dialer_backend/internal/http"
	"dialer_backend/internal/http/router"
	"dialer_backend/internal/scheduler"
	"dialer_backend/internal/sheets"
	"dialer_backend/internal/vapi"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	sheetsClient, err := newSheetsClient(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sheets client", "error", err)
		panic("failed to initialize sheets client: " + err.Error())
	}

	vapiClient := vapi.NewClient(cfg.VapiBaseURL, cfg.VapiAPIKey, cfg.VapiAssistantID, cfg.VapiTimeout, log)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	leases, schedClient, closeScheduler := initRedis(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	// Avoid handing the module a typed-nil interface when Redis is absent.
	var enqueuer handler.FillMissingEnqueuer
	if schedClient != nil {
		enqueuer = schedClient
	}

	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	campaignModule, err := campaign.NewModule(cfg, sheetsClient, vapiClient, leases, enqueuer, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize campaign module", "error", err)
		panic("failed to initialize campaign module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Modules: []apphttp.Module{
			campaignModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// newSheetsClient authenticates with a service-account key file when one is
// configured. Without credentials the client runs unauthenticated, which
// only works against local sheet emulators.
func newSheetsClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sheets.Client, error) {
	if cfg.GoogleCredentialsFile == "" {
		log.Warn("GOOGLE_CREDENTIALS_FILE not configured; sheets client runs unauthenticated")
		return sheets.NewClientWithHTTP(cfg.SheetsBaseURL, cfg.SpreadsheetID, &http.Client{Timeout: 30 * time.Second}, log), nil
	}
	return sheets.NewClient(ctx, cfg.SheetsBaseURL, cfg.SpreadsheetID, cfg.GoogleCredentialsFile, log)
}

// initRedis wires the dispatch claim store and the background-job client.
// Both are optional: without Redis claims are no-ops and the fill-missing
// endpoint runs inline.
func initRedis(cfg *config.Config, log *logger.Logger) (lease.Store, *scheduler.Client, func()) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; dispatch claims and background backfill disabled")
		return nil, nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		return nil, nil, nil
	}
	rdb := redis.NewClient(opt)

	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return lease.NewRedisStore(rdb), nil, func() { _ = rdb.Close() }
	}

	return lease.NewRedisStore(rdb), schedClient, func() {
		_ = schedClient.Close()
		_ = rdb.Close()
	}
}
