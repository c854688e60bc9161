package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/campaign/repository"
	"dialer_backend/internal/events"
	"dialer_backend/platform/logger"
)

// Reconciler applies asynchronous end-of-call reports onto lead rows.
// Reports are matched by phoneCallProviderId against a freshly fetched
// snapshot; the outcome fields are written in a single batched update or
// not at all.
type Reconciler struct {
	store    repository.LeadStore
	provider CallProvider
	layout   *domain.ColumnLayout
	bus      events.Bus
	log      *logger.Logger
}

func NewReconciler(store repository.LeadStore, provider CallProvider, layout *domain.ColumnLayout, bus events.Bus, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		provider: provider,
		layout:   layout,
		bus:      bus,
		log:      log,
	}
}

// Reconcile resolves the report to a lead row, fetches the provider's call
// metrics, and writes endedReason, duration, price, recordingUrl, and cost
// in one batch. ErrUnmatchedReport means the provider reported a call this
// sheet does not know; the caller drops it. ErrMetricsUnavailable means
// nothing was written and the reconciliation can be retried later.
func (r *Reconciler) Reconcile(ctx context.Context, report domain.EndOfCallReport) error {
	if report.PhoneCallProviderID == "" {
		return domain.ErrMalformedReport
	}

	leads, err := r.store.FetchLeads(ctx)
	if err != nil {
		return err
	}

	index := domain.BuildCallIndex(leads)
	row, ok := index.Resolve(report.PhoneCallProviderID)
	if !ok {
		r.log.ReportDropped("unmatched", report.PhoneCallProviderID)
		return fmt.Errorf("%w: %s", domain.ErrUnmatchedReport, report.PhoneCallProviderID)
	}

	metrics, err := r.provider.FetchCallMetrics(ctx, report.PhoneCallProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrMetricsUnavailable) {
			r.log.ReportDropped("metrics_unavailable", report.PhoneCallProviderID)
		}
		return err
	}

	updates := []domain.CellUpdate{
		{Row: row, Column: r.layout.EndedReason, Value: report.EndedReason},
		{Row: row, Column: r.layout.Duration, Value: strconv.Itoa(metrics.DurationSeconds)},
		{Row: row, Column: r.layout.Price, Value: formatMoney(metrics.Price)},
		{Row: row, Column: r.layout.RecordingURL, Value: report.RecordingURL},
		{Row: row, Column: r.layout.Cost, Value: formatMoney(report.Cost)},
	}
	if err := r.store.ApplyUpdates(ctx, updates); err != nil {
		return err
	}

	r.log.CallEvent("call_reconciled", report.PhoneCallProviderID, row)
	if r.bus != nil {
		r.bus.Publish(ctx, events.CallEnded{
			BaseEvent:           events.NewBaseEvent(),
			Row:                 row,
			PhoneCallProviderID: report.PhoneCallProviderID,
			EndedReason:         report.EndedReason,
		})
	}
	return nil
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
