package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dialer_backend/platform/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL, "sheet-1", srv.Client(), logger.New("test"))
}

func TestGetValuesDecodesMixedCellTypes(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"values": [["Name", "Age"], ["Jane", 42], ["Bob", null]]}`))
	})

	rows, err := client.GetValues(context.Background(), "'Lead list'!A1:R")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][1] != "42" {
		t.Fatalf("expected numeric cell coerced to \"42\", got %q", rows[1][1])
	}
	if rows[2][1] != "" {
		t.Fatalf("expected null cell to read empty, got %q", rows[2][1])
	}
}

func TestGetValuesEmptyRange(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"range": "'Lead list'!A1:R"}`))
	})

	rows, err := client.GetValues(context.Background(), "'Lead list'!A1:R")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestGetValuesQuotaExceeded(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})

	_, err := client.GetValues(context.Background(), "'Lead list'!A1:R")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestBatchUpdateSendsRawValueInput(t *testing.T) {
	var got struct {
		ValueInputOption string       `json:"valueInputOption"`
		Data             []ValueRange `json:"data"`
	}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	})

	data := []ValueRange{
		{Range: "'Lead list'!F2", Values: [][]string{{"called"}}},
		{Range: "'Lead list'!G2", Values: [][]string{{"prov-1"}}},
	}
	if err := client.BatchUpdate(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ValueInputOption != "RAW" {
		t.Fatalf("expected valueInputOption RAW, got %q", got.ValueInputOption)
	}
	if len(got.Data) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(got.Data))
	}
	if got.Data[0].Range != "'Lead list'!F2" || got.Data[0].Values[0][0] != "called" {
		t.Fatalf("unexpected first range: %+v", got.Data[0])
	}
}

func TestBatchUpdateEmptyIsNoop(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("expected no request for empty batch")
	})

	if err := client.BatchUpdate(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBatchUpdateServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.BatchUpdate(context.Background(), []ValueRange{
		{Range: "'Lead list'!F2", Values: [][]string{{"called"}}},
	})
	if err == nil {
		t.Fatalf("expected error for 500 response, got nil")
	}
	if errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected generic error, got quota: %v", err)
	}
}
