package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/platform/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key-1", "assistant-1", 5*time.Second, logger.New("test"))
}

func TestInitiateCallSendsAssistantAndVariables(t *testing.T) {
	var got map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Fatalf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id": "call-1", "phoneCallProviderId": "prov-1"}`))
	})

	result, err := client.InitiateCall(context.Background(), "num-1",
		Customer{Number: "+31612345678", Name: "Jane Doe"},
		map[string]string{"user_firstname": "Jane"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PhoneCallProviderID != "prov-1" || result.CallID != "call-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got["assistantId"] != "assistant-1" {
		t.Fatalf("expected assistantId from config, got %v", got["assistantId"])
	}
	if got["phoneNumberId"] != "num-1" {
		t.Fatalf("expected phoneNumberId num-1, got %v", got["phoneNumberId"])
	}
	overrides, ok := got["assistantOverrides"].(map[string]any)
	if !ok {
		t.Fatalf("expected assistantOverrides in payload")
	}
	values, ok := overrides["variableValues"].(map[string]any)
	if !ok || values["user_firstname"] != "Jane" {
		t.Fatalf("expected variableValues with user_firstname, got %v", overrides)
	}
}

func TestInitiateCallOmitsOverridesWithoutVariables(t *testing.T) {
	var got map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id": "call-1", "phoneCallProviderId": "prov-1"}`))
	})

	if _, err := client.InitiateCall(context.Background(), "num-1", Customer{Number: "+31612345678"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := got["assistantOverrides"]; present {
		t.Fatalf("expected no assistantOverrides, got %v", got["assistantOverrides"])
	}
}

func TestInitiateCallStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrProviderRejected},
		{http.StatusTooManyRequests, domain.ErrProviderThrottled},
		{http.StatusInternalServerError, domain.ErrProviderUnavailable},
		{http.StatusBadGateway, domain.ErrProviderUnavailable},
	}
	for _, tc := range cases {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		})
		_, err := client.InitiateCall(context.Background(), "num-1", Customer{Number: "+31612345678"}, nil)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestInitiateCallNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL, "key-1", "assistant-1", time.Second, logger.New("test"))

	_, err := client.InitiateCall(context.Background(), "num-1", Customer{Number: "+31612345678"}, nil)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestInitiateCallMissingIdentifiers(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "call-1"}`))
	})

	_, err := client.InitiateCall(context.Background(), "num-1", Customer{Number: "+31612345678"}, nil)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable for missing ids, got %v", err)
	}
}

func TestFetchCallMetricsDerivesDuration(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("phoneCallProviderId"); got != "prov-1" {
			t.Fatalf("expected phoneCallProviderId query, got %q", got)
		}
		_, _ = w.Write([]byte(`[{
			"id": "call-1",
			"startedAt": "2026-08-30T10:00:00Z",
			"endedAt": "2026-08-30T10:01:30Z",
			"cost": 0.42
		}]`))
	})

	metrics, err := client.FetchCallMetrics(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.DurationSeconds != 90 {
		t.Fatalf("expected 90 seconds, got %d", metrics.DurationSeconds)
	}
	if metrics.Price != 0.42 {
		t.Fatalf("expected price 0.42, got %v", metrics.Price)
	}
}

func TestFetchCallMetricsUnavailableCases(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "no timestamps yet",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"id": "call-1", "cost": 0.1}]`))
			},
		},
		{
			name: "empty list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unknown call", http.StatusNotFound)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, tc.handler)
			_, err := client.FetchCallMetrics(context.Background(), "prov-1")
			if !errors.Is(err, domain.ErrMetricsUnavailable) {
				t.Fatalf("expected ErrMetricsUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchCallAnswersExtractsToolArguments(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{
			"id": "call-1",
			"artifact": {
				"toolCalls": [
					{"function": {"name": "howMuch", "arguments": {"howMuch": "1000"}}},
					{"function": {"name": "tradingAnywhere", "arguments": {"answer": "yes"}}},
					{"function": {"name": "", "arguments": {"x": "ignored"}}},
					{"function": {"name": "lostAnything", "arguments": {"a": "1", "b": "2"}}}
				]
			}
		}]`))
	})

	answers, err := client.FetchCallAnswers(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answers["howMuch"] != "1000" {
		t.Fatalf("expected named argument match, got %q", answers["howMuch"])
	}
	if answers["tradingAnywhere"] != "yes" {
		t.Fatalf("expected sole-argument fallback, got %q", answers["tradingAnywhere"])
	}
	if _, ok := answers["lostAnything"]; ok {
		t.Fatalf("expected ambiguous arguments to be skipped")
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
}
