package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/vapi"
	"dialer_backend/platform/logger"
)

func calledLead(row int, providerID string) domain.Lead {
	return domain.Lead{
		Row:                 row,
		Status:              domain.StatusCalled,
		PhoneCallProviderID: providerID,
	}
}

func TestReconcileWritesOutcomeCellsInOneBatch(t *testing.T) {
	store := &fakeStore{
		leads: []domain.Lead{
			calledLead(2, "prov-a"),
			calledLead(5, "prov-b"),
		},
	}
	provider := &fakeProvider{
		metrics: func(providerID string) (vapi.CallMetrics, error) {
			if providerID != "prov-b" {
				t.Fatalf("expected metrics lookup for prov-b, got %s", providerID)
			}
			return vapi.CallMetrics{DurationSeconds: 95, Price: 0.5}, nil
		},
	}
	r := NewReconciler(store, provider, domain.DefaultLayout(), nil, logger.New("test"))

	err := r.Reconcile(context.Background(), domain.EndOfCallReport{
		PhoneCallProviderID: "prov-b",
		EndedReason:         "customer-ended-call",
		RecordingURL:        "https://rec.example/b",
		Cost:                0.75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batches := store.appliedBatches()
	if len(batches) != 1 {
		t.Fatalf("expected one batched write, got %d", len(batches))
	}
	batch := batches[0]
	if len(batch) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(batch))
	}
	for _, u := range batch {
		if u.Row != 5 {
			t.Fatalf("expected all cells on row 5, got %+v", u)
		}
	}

	want := map[string]string{
		"I": "customer-ended-call",
		"J": "95",
		"K": "0.5",
		"L": "https://rec.example/b",
		"R": "0.75",
	}
	for _, u := range batch {
		if want[u.Column] != u.Value {
			t.Fatalf("column %s: expected %q, got %q", u.Column, want[u.Column], u.Value)
		}
	}
}

func TestReconcileMissingProviderIDIsMalformed(t *testing.T) {
	r := NewReconciler(&fakeStore{}, &fakeProvider{}, domain.DefaultLayout(), nil, logger.New("test"))

	err := r.Reconcile(context.Background(), domain.EndOfCallReport{EndedReason: "x"})
	if !errors.Is(err, domain.ErrMalformedReport) {
		t.Fatalf("expected ErrMalformedReport, got %v", err)
	}
}

func TestReconcileUnmatchedReportWritesNothing(t *testing.T) {
	store := &fakeStore{leads: []domain.Lead{calledLead(2, "prov-a")}}
	r := NewReconciler(store, &fakeProvider{}, domain.DefaultLayout(), nil, logger.New("test"))

	err := r.Reconcile(context.Background(), domain.EndOfCallReport{
		PhoneCallProviderID: "prov-zz",
		EndedReason:         "customer-ended-call",
	})
	if !errors.Is(err, domain.ErrUnmatchedReport) {
		t.Fatalf("expected ErrUnmatchedReport, got %v", err)
	}
	if len(store.appliedBatches()) != 0 {
		t.Fatalf("expected no writes for unmatched report")
	}
}

func TestReconcileMetricsUnavailableWritesNothing(t *testing.T) {
	store := &fakeStore{leads: []domain.Lead{calledLead(2, "prov-a")}}
	provider := &fakeProvider{
		metrics: func(providerID string) (vapi.CallMetrics, error) {
			return vapi.CallMetrics{}, fmt.Errorf("%w: call prov-a", domain.ErrMetricsUnavailable)
		},
	}
	r := NewReconciler(store, provider, domain.DefaultLayout(), nil, logger.New("test"))

	err := r.Reconcile(context.Background(), domain.EndOfCallReport{
		PhoneCallProviderID: "prov-a",
		EndedReason:         "customer-ended-call",
	})
	if !errors.Is(err, domain.ErrMetricsUnavailable) {
		t.Fatalf("expected ErrMetricsUnavailable, got %v", err)
	}
	if len(store.appliedBatches()) != 0 {
		t.Fatalf("expected no partial writes when metrics are unavailable")
	}
}

func TestReconcileStoreFetchFailure(t *testing.T) {
	store := &fakeStore{fetchErr: domain.ErrUpstreamUnavailable}
	r := NewReconciler(store, &fakeProvider{}, domain.DefaultLayout(), nil, logger.New("test"))

	err := r.Reconcile(context.Background(), domain.EndOfCallReport{
		PhoneCallProviderID: "prov-a",
		EndedReason:         "customer-ended-call",
	})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestReconcileWriteFailurePropagates(t *testing.T) {
	store := &fakeStore{
		leads:    []domain.Lead{calledLead(2, "prov-a")},
		applyErr: domain.ErrUpstreamWriteFailed,
	}
	r := NewReconciler(store, &fakeProvider{}, domain.DefaultLayout(), nil, logger.New("test"))

	err := r.Reconcile(context.Background(), domain.EndOfCallReport{
		PhoneCallProviderID: "prov-a",
		EndedReason:         "customer-ended-call",
	})
	if !errors.Is(err, domain.ErrUpstreamWriteFailed) {
		t.Fatalf("expected ErrUpstreamWriteFailed, got %v", err)
	}
}
