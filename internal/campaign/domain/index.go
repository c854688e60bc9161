package domain

// CallIndex maps a provider-assigned correlation id to the 1-based sheet
// row of the lead it was issued for. It is built fresh from a just-fetched
// snapshot and is only ever consistent with that snapshot; callers re-fetch
// before reconciling when staleness matters.
type CallIndex map[string]int

// BuildCallIndex indexes a lead snapshot by phoneCallProviderId.
// Leads without a provider id are skipped. If two rows carry the same id
// the first one wins; duplicate ids mean the sheet was edited by hand.
func BuildCallIndex(leads []Lead) CallIndex {
	index := make(CallIndex, len(leads))
	for _, lead := range leads {
		if lead.PhoneCallProviderID == "" {
			continue
		}
		if _, exists := index[lead.PhoneCallProviderID]; exists {
			continue
		}
		index[lead.PhoneCallProviderID] = lead.Row
	}
	return index
}

// Resolve returns the sheet row for a correlation id.
func (ci CallIndex) Resolve(phoneCallProviderID string) (int, bool) {
	row, ok := ci[phoneCallProviderID]
	return row, ok
}
