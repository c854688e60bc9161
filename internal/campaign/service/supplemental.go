package service

import (
	"context"
	"errors"
	"fmt"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/campaign/repository"
	"dialer_backend/platform/logger"
)

// Supplemental writes tool-call answers into the free-form answer columns.
// Every write is fill-only: a cell that already has a value is never
// overwritten, so replayed webhooks and overlapping backfills are harmless.
type Supplemental struct {
	store    repository.LeadStore
	provider CallProvider
	layout   *domain.ColumnLayout
	log      *logger.Logger
}

func NewSupplemental(store repository.LeadStore, provider CallProvider, layout *domain.ColumnLayout, log *logger.Logger) *Supplemental {
	return &Supplemental{
		store:    store,
		provider: provider,
		layout:   layout,
		log:      log,
	}
}

// ErrUnknownTool is returned for tool names outside the answer columns.
var ErrUnknownTool = errors.New("unknown tool")

// ApplyToolAnswer writes one in-call tool answer to its column, resolving
// the lead through the correlation index. Returns the value the cell holds
// afterwards: the answer when it was written, or the existing value when
// the cell was already filled and kept.
func (s *Supplemental) ApplyToolAnswer(ctx context.Context, answer domain.ToolCallAnswer) (string, error) {
	column, ok := s.layout.SupplementalColumns()[answer.Tool]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, answer.Tool)
	}
	if answer.PhoneCallProviderID == "" {
		return "", domain.ErrMalformedReport
	}

	leads, err := s.store.FetchLeads(ctx)
	if err != nil {
		return "", err
	}

	index := domain.BuildCallIndex(leads)
	row, ok := index.Resolve(answer.PhoneCallProviderID)
	if !ok {
		s.log.ReportDropped("unmatched_tool_call", answer.PhoneCallProviderID)
		return "", fmt.Errorf("%w: %s", domain.ErrUnmatchedReport, answer.PhoneCallProviderID)
	}

	if current := supplementalValue(leadByRow(leads, row), answer.Tool); current != "" {
		s.log.Info("supplemental cell already filled", "row", row, "tool", answer.Tool)
		return current, nil
	}

	update := domain.CellUpdate{Row: row, Column: column, Value: answer.Value}
	if err := s.store.ApplyUpdates(ctx, []domain.CellUpdate{update}); err != nil {
		return "", err
	}

	s.log.Info("supplemental answer written", "row", row, "tool", answer.Tool)
	return answer.Value, nil
}

// FillMissing scans called leads and backfills empty answer columns from
// the provider's call artifacts. All collected cells are applied in one
// batched update. Returns the number of cells written.
func (s *Supplemental) FillMissing(ctx context.Context) (int, error) {
	leads, err := s.store.FetchLeads(ctx)
	if err != nil {
		return 0, err
	}

	var updates []domain.CellUpdate
	for _, l := range leads {
		if l.Status != domain.StatusCalled && l.Status != domain.StatusEnded {
			continue
		}
		if l.PhoneCallProviderID == "" {
			continue
		}

		missing := s.missingColumns(l)
		if len(missing) == 0 {
			continue
		}

		answers, err := s.provider.FetchCallAnswers(ctx, l.PhoneCallProviderID)
		if err != nil {
			// A call the provider no longer knows cannot be backfilled;
			// keep scanning the rest.
			s.log.Warn("fetch call answers failed", "row", l.Row, "error", err)
			continue
		}

		for tool, column := range missing {
			value, ok := answers[tool]
			if !ok || value == "" {
				continue
			}
			updates = append(updates, domain.CellUpdate{Row: l.Row, Column: column, Value: value})
		}
	}

	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.store.ApplyUpdates(ctx, updates); err != nil {
		return 0, err
	}

	s.log.Info("filled missing supplemental cells", "cells", len(updates))
	return len(updates), nil
}

// missingColumns returns tool -> column for the answer cells still empty
// on this lead.
func (s *Supplemental) missingColumns(l domain.Lead) map[string]string {
	missing := make(map[string]string)
	for tool, column := range s.layout.SupplementalColumns() {
		if supplementalValue(l, tool) == "" {
			missing[tool] = column
		}
	}
	return missing
}

func supplementalValue(l domain.Lead, tool string) string {
	switch tool {
	case "updateClientName":
		return l.ClientName
	case "tradingAnywhere":
		return l.TradingAnywhere
	case "lostAnything":
		return l.LostAnything
	case "howMuch":
		return l.HowMuch
	case "makeAppointment":
		return l.MakeAppointment
	default:
		return ""
	}
}

func leadByRow(leads []domain.Lead, row int) domain.Lead {
	for _, l := range leads {
		if l.Row == row {
			return l
		}
	}
	return domain.Lead{}
}
