// Package campaign provides the outbound-call campaign bounded context.
// This file defines the module that encapsulates all campaign setup and
// route registration.
package campaign

import (
	"context"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/campaign/handler"
	"dialer_backend/internal/campaign/lease"
	"dialer_backend/internal/campaign/repository"
	"dialer_backend/internal/campaign/service"
	"dialer_backend/internal/config"
	"dialer_backend/internal/events"
	apphttp "dialer_backend/internal/http"
	"dialer_backend/internal/sheets"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/validator"
)

// Module is the campaign bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	dispatcher   *service.Dispatcher
	reconciler   *service.Reconciler
	supplemental *service.Supplemental
}

// NewModule creates and initializes the campaign module with all its
// dependencies. leases and enqueuer may be nil when no Redis is configured.
func NewModule(cfg *config.Config, sheetsClient *sheets.Client, provider service.CallProvider, leases lease.Store, enqueuer handler.FillMissingEnqueuer, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	layout, err := domain.LoadLayout(cfg.ColumnLayoutFile)
	if err != nil {
		return nil, err
	}

	repo := repository.New(sheetsClient, cfg.LeadsSheet, cfg.NumbersSheet, layout, log)

	dispatcher := service.NewDispatcher(repo, provider, leases, layout, eventBus, service.DispatcherConfig{
		Concurrency: cfg.DispatchConcurrency,
		MaxAttempts: cfg.DispatchMaxAttempts,
		CallSpacing: cfg.CallSpacing,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
		ClaimTTL:    cfg.ClaimTTL,
	}, log)
	reconciler := service.NewReconciler(repo, provider, layout, eventBus, log)
	supplemental := service.NewSupplemental(repo, provider, layout, log)

	// A reconciled call usually leaves supplemental cells to backfill;
	// hand the scan to the worker when one is configured.
	if enqueuer != nil {
		eventBus.Subscribe(events.CallEnded{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
			if _, ok := event.(events.CallEnded); !ok {
				return nil
			}
			if err := enqueuer.EnqueueFillMissing(ctx); err != nil {
				log.Error("enqueue fill-missing failed", "error", err)
			}
			return nil
		}))
	}

	h := handler.New(dispatcher, reconciler, supplemental, enqueuer, val, cfg.VapiWebhookSecret)

	return &Module{
		handler:      h,
		dispatcher:   dispatcher,
		reconciler:   reconciler,
		supplemental: supplemental,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string { return "campaign" }

// RegisterRoutes mounts the campaign routes on /api/v1.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// Supplemental exposes the backfill service for the background worker.
func (m *Module) Supplemental() *service.Supplemental { return m.supplemental }
