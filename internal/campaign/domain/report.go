package domain

// EndOfCallReport is the validated content of a provider end-of-call
// webhook. PhoneCallProviderID and EndedReason are required; recording URL
// and cost may legitimately be absent (for example unanswered calls).
type EndOfCallReport struct {
	PhoneCallProviderID string
	EndedReason         string
	RecordingURL        string
	Cost                float64
}

// ToolCallAnswer is one supplemental answer extracted from an in-call tool
// invocation, addressed to the lead that owns the correlation id.
type ToolCallAnswer struct {
	PhoneCallProviderID string
	Tool                string
	Value               string
}
