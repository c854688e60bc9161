// Package domain contains the campaign domain model: leads, call statuses,
// the sheet column layout, and the correlation index used to match
// asynchronous end-of-call reports back to lead rows.
package domain

// Status is the lifecycle state of a lead, stored verbatim in the sheet.
// The literal values (including the legacy casing of "Bad Request") are a
// compatibility contract with existing spreadsheets.
type Status string

const (
	StatusNotCalled  Status = "not-called"
	StatusCalled     Status = "called"
	StatusError      Status = "error"
	StatusBadRequest Status = "Bad Request"
	StatusEnded      Status = "ended"
)

// Lead is one prospective contact, backed by a single sheet row.
// Row is the 1-based position in the sheet including the header row; it is
// captured at fetch time and never recomputed from filtered slices.
type Lead struct {
	Row int

	FirstName string
	LastName  string
	Phone     string
	Email     string
	Country   string

	Status              Status
	PhoneCallProviderID string
	CallID              string

	EndedReason  string
	Duration     string
	Price        string
	RecordingURL string
	Cost         string

	ClientName      string
	TradingAnywhere string
	LostAnything    string
	HowMuch         string
	MakeAppointment string
}

// FullName joins the identity name fields for the provider's customer record.
func (l Lead) FullName() string {
	if l.LastName == "" {
		return l.FirstName
	}
	if l.FirstName == "" {
		return l.LastName
	}
	return l.FirstName + " " + l.LastName
}

// LeadFromRow maps a raw sheet row to a Lead using the given layout.
// rowIndex is the 1-based sheet position of the row. Cells beyond the end
// of the slice read as empty; the sheets API trims trailing blanks.
func LeadFromRow(layout *ColumnLayout, rowIndex int, cells []string) Lead {
	at := func(column string) string {
		idx := ColumnIndex(column)
		if idx < 0 || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	return Lead{
		Row:                 rowIndex,
		FirstName:           at(layout.FirstName),
		LastName:            at(layout.LastName),
		Phone:               at(layout.Phone),
		Email:               at(layout.Email),
		Country:             at(layout.Country),
		Status:              Status(at(layout.Status)),
		PhoneCallProviderID: at(layout.PhoneCallProviderID),
		CallID:              at(layout.CallID),
		EndedReason:         at(layout.EndedReason),
		Duration:            at(layout.Duration),
		Price:               at(layout.Price),
		RecordingURL:        at(layout.RecordingURL),
		Cost:                at(layout.Cost),
		ClientName:          at(layout.ClientName),
		TradingAnywhere:     at(layout.TradingAnywhere),
		LostAnything:        at(layout.LostAnything),
		HowMuch:             at(layout.HowMuch),
		MakeAppointment:     at(layout.MakeAppointment),
	}
}

// ActiveNumber is an outbound calling-number identifier with its
// eligibility flag as stored in the numbers tab.
type ActiveNumber struct {
	ID     string
	Active bool
}
