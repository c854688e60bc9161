package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnLayout maps lead fields to sheet column letters. The default layout
// (columns A-R) is the contract with existing spreadsheets; deployments with
// a different layout override it from a YAML file.
type ColumnLayout struct {
	FirstName           string `yaml:"firstName"`
	LastName            string `yaml:"lastName"`
	Phone               string `yaml:"phone"`
	Email               string `yaml:"email"`
	Country             string `yaml:"country"`
	Status              string `yaml:"status"`
	PhoneCallProviderID string `yaml:"phoneCallProviderId"`
	CallID              string `yaml:"callId"`
	EndedReason         string `yaml:"endedReason"`
	Duration            string `yaml:"duration"`
	Price               string `yaml:"price"`
	RecordingURL        string `yaml:"recordingUrl"`
	ClientName          string `yaml:"clientName"`
	TradingAnywhere     string `yaml:"tradingAnywhere"`
	LostAnything        string `yaml:"lostAnything"`
	HowMuch             string `yaml:"howMuch"`
	MakeAppointment     string `yaml:"makeAppointment"`
	Cost                string `yaml:"cost"`
}

// DefaultLayout returns the legacy A-R column layout.
func DefaultLayout() *ColumnLayout {
	return &ColumnLayout{
		FirstName:           "A",
		LastName:            "B",
		Phone:               "C",
		Email:               "D",
		Country:             "E",
		Status:              "F",
		PhoneCallProviderID: "G",
		CallID:              "H",
		EndedReason:         "I",
		Duration:            "J",
		Price:               "K",
		RecordingURL:        "L",
		ClientName:          "M",
		TradingAnywhere:     "N",
		LostAnything:        "O",
		HowMuch:             "P",
		MakeAppointment:     "Q",
		Cost:                "R",
	}
}

// LoadLayout reads a layout override from a YAML file. Fields omitted in
// the file keep their default column.
func LoadLayout(path string) (*ColumnLayout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read column layout: %w", err)
	}
	if err := yaml.Unmarshal(data, layout); err != nil {
		return nil, fmt.Errorf("parse column layout: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// Validate checks that every field has a column letter and no two fields
// share one.
func (cl *ColumnLayout) Validate() error {
	seen := make(map[string]string, len(cl.columns()))
	for field, column := range cl.columns() {
		if column == "" {
			return fmt.Errorf("column layout: %s has no column", field)
		}
		if ColumnIndex(column) < 0 {
			return fmt.Errorf("column layout: %s has invalid column %q", field, column)
		}
		if prev, ok := seen[column]; ok {
			return fmt.Errorf("column layout: %s and %s both map to column %s", prev, field, column)
		}
		seen[column] = field
	}
	return nil
}

func (cl *ColumnLayout) columns() map[string]string {
	return map[string]string{
		"firstName":           cl.FirstName,
		"lastName":            cl.LastName,
		"phone":               cl.Phone,
		"email":               cl.Email,
		"country":             cl.Country,
		"status":              cl.Status,
		"phoneCallProviderId": cl.PhoneCallProviderID,
		"callId":              cl.CallID,
		"endedReason":         cl.EndedReason,
		"duration":            cl.Duration,
		"price":               cl.Price,
		"recordingUrl":        cl.RecordingURL,
		"clientName":          cl.ClientName,
		"tradingAnywhere":     cl.TradingAnywhere,
		"lostAnything":        cl.LostAnything,
		"howMuch":             cl.HowMuch,
		"makeAppointment":     cl.MakeAppointment,
		"cost":                cl.Cost,
	}
}

// LastColumn returns the rightmost mapped column letter, bounding the
// range a reader must fetch to see every field.
func (cl *ColumnLayout) LastColumn() string {
	last := "A"
	for _, column := range cl.columns() {
		if ColumnIndex(column) > ColumnIndex(last) {
			last = column
		}
	}
	return last
}

// SupplementalColumns lists the fill-missing answer columns keyed by the
// tool name that produces each answer.
func (cl *ColumnLayout) SupplementalColumns() map[string]string {
	return map[string]string{
		"updateClientName": cl.ClientName,
		"tradingAnywhere":  cl.TradingAnywhere,
		"lostAnything":     cl.LostAnything,
		"howMuch":          cl.HowMuch,
		"makeAppointment":  cl.MakeAppointment,
	}
}

// ColumnIndex converts a column letter ("A", "B", ... "AA") to a 0-based
// index, or -1 if the letter is not a valid column reference.
func ColumnIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	idx := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return -1
		}
		idx = idx*26 + int(r-'A') + 1
	}
	return idx - 1
}

// CellUpdate is a single-cell write: 1-based sheet row, column letter, value.
type CellUpdate struct {
	Row    int
	Column string
	Value  string
}
