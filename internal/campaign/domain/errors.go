package domain

import "errors"

// Error taxonomy for the campaign. Store and provider adapters wrap these
// sentinels so services can branch on errors.Is without knowing transport
// details.
var (
	// ErrUpstreamUnavailable: the lead store could not be read at all.
	ErrUpstreamUnavailable = errors.New("lead store unavailable")
	// ErrUpstreamWriteFailed: a batched write to the lead store failed.
	ErrUpstreamWriteFailed = errors.New("lead store write failed")

	// ErrProviderRejected: the provider rejected the call permanently
	// (for example a malformed phone number). Never retried.
	ErrProviderRejected = errors.New("call provider rejected the call")
	// ErrProviderThrottled: provider rate or concurrency limit. Transient.
	ErrProviderThrottled = errors.New("call provider throttled the call")
	// ErrProviderUnavailable: provider network failure, timeout, or 5xx. Transient.
	ErrProviderUnavailable = errors.New("call provider unavailable")
	// ErrMetricsUnavailable: the provider does not know the call id yet.
	ErrMetricsUnavailable = errors.New("call metrics unavailable")

	// ErrMalformedReport: a required nested field is missing from an
	// end-of-call report. The report is logged and dropped.
	ErrMalformedReport = errors.New("malformed end-of-call report")
	// ErrUnmatchedReport: the report's provider id matches no lead row.
	ErrUnmatchedReport = errors.New("report does not match any lead")

	// ErrNoCapacity: no active outbound numbers; dispatch fails before
	// any call is placed.
	ErrNoCapacity = errors.New("no active phone numbers available")
)
