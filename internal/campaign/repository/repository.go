// Package repository implements the lead store over the Google Sheets
// values API.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/sheets"
	"dialer_backend/platform/logger"
)

const (
	// Quota errors on batched writes are retried inside the adapter so
	// callers keep all-or-nothing semantics.
	writeQuotaRetries = 3
	writeQuotaDelay   = 2 * time.Second
)

type Repository struct {
	client       *sheets.Client
	leadsSheet   string
	numbersSheet string
	layout       *domain.ColumnLayout
	log          *logger.Logger
}

func New(client *sheets.Client, leadsSheet, numbersSheet string, layout *domain.ColumnLayout, log *logger.Logger) *Repository {
	return &Repository{
		client:       client,
		leadsSheet:   leadsSheet,
		numbersSheet: numbersSheet,
		layout:       layout,
		log:          log,
	}
}

// leadsRange covers column A through the rightmost mapped column, so
// layout overrides can never push a field out of the fetched range.
func (r *Repository) leadsRange() string {
	return fmt.Sprintf("'%s'!A1:%s", r.leadsSheet, r.layout.LastColumn())
}

func (r *Repository) FetchRows(ctx context.Context) ([][]string, error) {
	rows, err := r.client.GetValues(ctx, r.leadsRange())
	if err != nil {
		r.log.StoreError("fetch_leads", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return rows, nil
}

func (r *Repository) FetchLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.FetchRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []domain.Lead{}, nil
	}

	leads := make([]domain.Lead, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		// i+2: 1-based sheet rows, +1 for the header row.
		leads = append(leads, domain.LeadFromRow(r.layout, i+2, cells))
	}
	return leads, nil
}

func (r *Repository) FetchActiveNumbers(ctx context.Context) ([]string, error) {
	readRange := fmt.Sprintf("'%s'!A:B", r.numbersSheet)
	rows, err := r.client.GetValues(ctx, readRange)
	if err != nil {
		r.log.StoreError("fetch_active_numbers", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	active := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 || row[0] == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(row[1]), "active") {
			active = append(active, row[0])
		}
	}
	return active, nil
}

func (r *Repository) ApplyUpdates(ctx context.Context, updates []domain.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, sheets.ValueRange{
			Range:  fmt.Sprintf("'%s'!%s%d", r.leadsSheet, u.Column, u.Row),
			Values: [][]string{{u.Value}},
		})
	}

	var err error
	for attempt := 0; attempt < writeQuotaRetries; attempt++ {
		err = r.client.BatchUpdate(ctx, data)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sheets.ErrQuotaExceeded) {
			break
		}

		delay := writeQuotaDelay << attempt
		r.log.Warn("sheets write quota exceeded, backing off",
			"attempt", attempt+1, "delay", delay.String())
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrUpstreamWriteFailed, ctx.Err())
		case <-time.After(delay):
		}
	}

	r.log.StoreError("apply_updates", err)
	return fmt.Errorf("%w: %v", domain.ErrUpstreamWriteFailed, err)
}
