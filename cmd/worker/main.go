package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/campaign/repository"
	"dialer_backend/internal/campaign/service"
	"dialer_backend/internal/config"
	"dialer_backend/internal/scheduler"
	"dialer_backend/internal/sheets"
	"dialer_backend/internal/vapi"
	"dialer_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout, err := domain.LoadLayout(cfg.ColumnLayoutFile)
	if err != nil {
		log.Error("failed to load column layout", "error", err)
		panic("failed to load column layout: " + err.Error())
	}

	sheetsClient, err := newSheetsClient(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sheets client", "error", err)
		panic("failed to initialize sheets client: " + err.Error())
	}

	vapiClient := vapi.NewClient(cfg.VapiBaseURL, cfg.VapiAPIKey, cfg.VapiAssistantID, cfg.VapiTimeout, log)

	repo := repository.New(sheetsClient, cfg.LeadsSheet, cfg.NumbersSheet, layout, log)
	supplemental := service.NewSupplemental(repo, vapiClient, layout, log)

	worker, err := scheduler.NewWorker(cfg, supplemental, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}

func newSheetsClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sheets.Client, error) {
	if cfg.GoogleCredentialsFile == "" {
		log.Warn("GOOGLE_CREDENTIALS_FILE not configured; sheets client runs unauthenticated")
		return sheets.NewClientWithHTTP(cfg.SheetsBaseURL, cfg.SpreadsheetID, &http.Client{Timeout: 30 * time.Second}, log), nil
	}
	return sheets.NewClient(ctx, cfg.SheetsBaseURL, cfg.SpreadsheetID, cfg.GoogleCredentialsFile, log)
}
