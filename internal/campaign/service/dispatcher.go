// Package service contains the campaign services: the dispatch scheduler,
// the report reconciler, and the supplemental-answer backfill.
package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/internal/campaign/lease"
	"dialer_backend/internal/campaign/repository"
	"dialer_backend/internal/events"
	"dialer_backend/internal/vapi"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DispatcherConfig tunes the worker pool and retry policy.
type DispatcherConfig struct {
	// Concurrency bounds how many call attempts are in flight at once.
	Concurrency int
	// MaxAttempts caps initiation attempts per lead, first try included.
	MaxAttempts int
	// CallSpacing is the minimum delay between successive call
	// initiations across all concurrent slots.
	CallSpacing time.Duration
	// BackoffBase is the first retry delay; it doubles per attempt up to
	// BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// ClaimTTL bounds how long a lead stays claimed in the lease store.
	ClaimTTL time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Concurrency < 1 {
		c.Concurrency = 10
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.CallSpacing <= 0 {
		c.CallSpacing = 2 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 30 * time.Second
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 10 * time.Minute
	}
	return c
}

// Dispatcher selects not-called leads and places calls for them with a
// bounded worker pool. All mutable scheduling state is local to one
// Dispatch invocation, so concurrent dispatch requests cannot corrupt each
// other; only the lease store is shared, and only to keep two requests off
// the same row.
type Dispatcher struct {
	store    repository.LeadStore
	provider CallProvider
	leases   lease.Store
	layout   *domain.ColumnLayout
	bus      events.Bus
	cfg      DispatcherConfig
	log      *logger.Logger
}

func NewDispatcher(store repository.LeadStore, provider CallProvider, leases lease.Store, layout *domain.ColumnLayout, bus events.Bus, cfg DispatcherConfig, log *logger.Logger) *Dispatcher {
	if leases == nil {
		leases = lease.NoopStore{}
	}
	return &Dispatcher{
		store:    store,
		provider: provider,
		leases:   leases,
		layout:   layout,
		bus:      bus,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// AttemptOutcome is the per-lead result of one dispatch batch entry.
type AttemptOutcome struct {
	Row                 int           `json:"row"`
	Name                string        `json:"name"`
	Status              domain.Status `json:"status,omitempty"`
	PhoneCallProviderID string        `json:"phoneCallProviderId,omitempty"`
	CallID              string        `json:"callId,omitempty"`
	Skipped             bool          `json:"skipped,omitempty"`
	Error               string        `json:"error,omitempty"`
}

// Dispatch places calls for up to numberOfCalls not-called leads.
// Per-lead failures are recorded in the outcomes and never abort the
// batch; only failures before any call is placed (store unreachable, no
// active numbers) are returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, numberOfCalls int) ([]AttemptOutcome, error) {
	log := d.log.WithBatchID(uuid.NewString())

	leads, err := d.store.FetchLeads(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]domain.Lead, 0, numberOfCalls)
	for _, l := range leads {
		if l.Status != domain.StatusNotCalled {
			continue
		}
		pending = append(pending, l)
		if len(pending) == numberOfCalls {
			break
		}
	}
	if len(pending) == 0 {
		return []AttemptOutcome{}, nil
	}

	numbers, err := d.store.FetchActiveNumbers(ctx)
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, domain.ErrNoCapacity
	}

	log.Info("dispatching batch", "requested", numberOfCalls, "selected", len(pending), "numbers", len(numbers))

	// One limiter shared by all slots enforces the provider's pacing
	// requirement across concurrent initiations.
	limiter := rate.NewLimiter(rate.Every(d.cfg.CallSpacing), 1)

	outcomes := make([]AttemptOutcome, len(pending))
	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Concurrency)
	for i, l := range pending {
		g.Go(func() error {
			outcomes[i] = d.dispatchOne(ctx, log, l, numbers, limiter)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, log *logger.Logger, l domain.Lead, numbers []string, limiter *rate.Limiter) AttemptOutcome {
	outcome := AttemptOutcome{Row: l.Row, Name: l.FullName()}

	claimed, err := d.leases.Claim(ctx, l.Row, d.cfg.ClaimTTL)
	if err != nil {
		// The claim is best-effort; a broken lease store must not stop
		// the campaign.
		log.Warn("lease claim failed, proceeding without claim", "row", l.Row, "error", err)
	} else if !claimed {
		log.Info("lead already claimed by another dispatch", "row", l.Row)
		outcome.Skipped = true
		return outcome
	}

	customer := vapiCustomer(l)
	variables := map[string]string{
		"user_firstname": l.FirstName,
		"user_lastname":  l.LastName,
		"user_email":     l.Email,
		"user_country":   l.Country,
	}

	var lastErr error
	attempted := false
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		attempted = true

		numberID := numbers[rand.IntN(len(numbers))]
		result, err := d.provider.InitiateCall(ctx, numberID, customer, variables)
		if err == nil {
			return d.completeAttempt(ctx, log, l, result, outcome)
		}
		lastErr = err

		if errors.Is(err, domain.ErrProviderRejected) {
			log.CallError("call_rejected", l.Row, err)
			d.writeStatus(ctx, log, l.Row, domain.StatusBadRequest)
			d.release(ctx, l.Row)
			outcome.Status = domain.StatusBadRequest
			outcome.Error = err.Error()
			return outcome
		}

		if attempt < d.cfg.MaxAttempts {
			delay := d.backoff(attempt)
			log.Warn("call attempt failed, backing off",
				"row", l.Row, "attempt", attempt, "delay", delay.String(), "error", err)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = d.cfg.MaxAttempts
			case <-time.After(delay):
			}
		}
	}

	// A lead the dispatch never got to try stays not-called; only a lead
	// whose attempts were exhausted is marked terminally.
	if !attempted {
		log.Warn("dispatch ended before any attempt, leaving lead untouched", "row", l.Row, "error", lastErr)
		d.release(ctx, l.Row)
		outcome.Skipped = true
		if lastErr != nil {
			outcome.Error = lastErr.Error()
		}
		return outcome
	}

	log.CallError("call_failed", l.Row, lastErr)
	d.writeStatus(ctx, log, l.Row, domain.StatusError)
	d.release(ctx, l.Row)
	outcome.Status = domain.StatusError
	if lastErr != nil {
		outcome.Error = lastErr.Error()
	}
	return outcome
}

// completeAttempt writes status and both provider identifiers to the row
// before the attempt is reported complete. The write happens synchronously
// so an early-arriving end-of-call report always finds the correlation id
// in the sheet.
func (d *Dispatcher) completeAttempt(ctx context.Context, log *logger.Logger, l domain.Lead, result vapi.CallResult, outcome AttemptOutcome) AttemptOutcome {
	updates := []domain.CellUpdate{
		{Row: l.Row, Column: d.layout.Status, Value: string(domain.StatusCalled)},
		{Row: l.Row, Column: d.layout.PhoneCallProviderID, Value: result.PhoneCallProviderID},
		{Row: l.Row, Column: d.layout.CallID, Value: result.CallID},
	}
	if err := d.store.ApplyUpdates(ctx, updates); err != nil {
		// The call is placed and cannot be un-placed; surface the lost
		// write in the outcome instead of pretending the lead was called.
		log.CallError("row_update_failed", l.Row, err)
		outcome.PhoneCallProviderID = result.PhoneCallProviderID
		outcome.CallID = result.CallID
		outcome.Error = err.Error()
		return outcome
	}

	log.CallEvent("call_placed", result.PhoneCallProviderID, l.Row)
	if d.bus != nil {
		d.bus.Publish(ctx, events.CallPlaced{
			BaseEvent:           events.NewBaseEvent(),
			Row:                 l.Row,
			PhoneCallProviderID: result.PhoneCallProviderID,
			CallID:              result.CallID,
		})
	}

	outcome.Status = domain.StatusCalled
	outcome.PhoneCallProviderID = result.PhoneCallProviderID
	outcome.CallID = result.CallID
	return outcome
}

func (d *Dispatcher) writeStatus(ctx context.Context, log *logger.Logger, row int, status domain.Status) {
	err := d.store.ApplyUpdates(ctx, []domain.CellUpdate{
		{Row: row, Column: d.layout.Status, Value: string(status)},
	})
	if err != nil {
		log.CallError("status_write_failed", row, err)
	}
}

func (d *Dispatcher) release(ctx context.Context, row int) {
	if err := d.leases.Release(ctx, row); err != nil {
		d.log.Warn("lease release failed", "row", row, "error", err)
	}
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := d.cfg.BackoffBase << (attempt - 1)
	if delay > d.cfg.BackoffMax {
		delay = d.cfg.BackoffMax
	}
	return delay
}

// Snapshot returns the raw sheet rows, header included.
func (d *Dispatcher) Snapshot(ctx context.Context) ([][]string, error) {
	return d.store.FetchRows(ctx)
}

// PlaceCall places one ad-hoc call outside the lead sheet. No row is
// written; the caller owns any bookkeeping.
func (d *Dispatcher) PlaceCall(ctx context.Context, phoneNumberID string, customer vapi.Customer) (vapi.CallResult, error) {
	customer.Number = phone.CoerceE164(customer.Number)
	return d.provider.InitiateCall(ctx, phoneNumberID, customer, nil)
}

// vapiCustomer maps a lead to the provider customer record, coercing the
// stored number to E.164.
func vapiCustomer(l domain.Lead) vapi.Customer {
	return vapi.Customer{
		Number: phone.CoerceE164(l.Phone),
		Name:   l.FullName(),
	}
}
