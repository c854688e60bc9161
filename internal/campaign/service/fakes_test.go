package service

import (
	"context"
	"sync"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/vapi"
)

// fakeStore records every batch applied to it. Error fields make a single
// method fail.
type fakeStore struct {
	mu sync.Mutex

	leads   []domain.Lead
	rows    [][]string
	numbers []string

	fetchErr   error
	numbersErr error
	applyErr   error

	batches [][]domain.CellUpdate
}

func (s *fakeStore) FetchLeads(ctx context.Context) ([]domain.Lead, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Lead(nil), s.leads...), nil
}

func (s *fakeStore) FetchRows(ctx context.Context) ([][]string, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.rows, nil
}

func (s *fakeStore) FetchActiveNumbers(ctx context.Context) ([]string, error) {
	if s.numbersErr != nil {
		return nil, s.numbersErr
	}
	return s.numbers, nil
}

func (s *fakeStore) ApplyUpdates(ctx context.Context, updates []domain.CellUpdate) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]domain.CellUpdate(nil), updates...))
	return nil
}

func (s *fakeStore) appliedBatches() [][]domain.CellUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.CellUpdate(nil), s.batches...)
}

func (s *fakeStore) allUpdates() []domain.CellUpdate {
	var all []domain.CellUpdate
	for _, batch := range s.appliedBatches() {
		all = append(all, batch...)
	}
	return all
}

// fakeProvider delegates to the configured functions and counts initiation
// attempts.
type fakeProvider struct {
	mu sync.Mutex

	initiate func(numberID string, customer vapi.Customer) (vapi.CallResult, error)
	metrics  func(providerID string) (vapi.CallMetrics, error)
	answers  func(providerID string) (map[string]string, error)

	initiations int
}

func (p *fakeProvider) InitiateCall(ctx context.Context, phoneNumberID string, customer vapi.Customer, variables map[string]string) (vapi.CallResult, error) {
	p.mu.Lock()
	p.initiations++
	p.mu.Unlock()
	if p.initiate == nil {
		return vapi.CallResult{}, nil
	}
	return p.initiate(phoneNumberID, customer)
}

func (p *fakeProvider) FetchCallMetrics(ctx context.Context, phoneCallProviderID string) (vapi.CallMetrics, error) {
	if p.metrics == nil {
		return vapi.CallMetrics{}, nil
	}
	return p.metrics(phoneCallProviderID)
}

func (p *fakeProvider) FetchCallAnswers(ctx context.Context, phoneCallProviderID string) (map[string]string, error) {
	if p.answers == nil {
		return map[string]string{}, nil
	}
	return p.answers(phoneCallProviderID)
}

func (p *fakeProvider) initiationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initiations
}
