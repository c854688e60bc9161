package service

import (
	"context"

	"dialer_backend/internal/vapi"
)

// CallProvider is the voice provider boundary consumed by the services.
// Satisfied by *vapi.Client; tests substitute fakes.
type CallProvider interface {
	InitiateCall(ctx context.Context, phoneNumberID string, customer vapi.Customer, variables map[string]string) (vapi.CallResult, error)
	FetchCallMetrics(ctx context.Context, phoneCallProviderID string) (vapi.CallMetrics, error)
	FetchCallAnswers(ctx context.Context, phoneCallProviderID string) (map[string]string, error)
}
