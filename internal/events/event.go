// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"dialer_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// CallPlaced is published when a call attempt got a provider id and the
// lead row was marked called.
type CallPlaced struct {
	BaseEvent
	Row                 int    `json:"row"`
	PhoneCallProviderID string `json:"phoneCallProviderId"`
	CallID              string `json:"callId"`
}

func (e CallPlaced) EventName() string { return "campaign.call.placed" }

// CallEnded is published after an end-of-call report was reconciled onto
// its lead row. Subscribers use it to trigger supplemental backfill.
type CallEnded struct {
	BaseEvent
	Row                 int    `json:"row"`
	PhoneCallProviderID string `json:"phoneCallProviderId"`
	EndedReason         string `json:"endedReason"`
}

func (e CallEnded) EventName() string { return "campaign.call.ended" }
