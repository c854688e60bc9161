// Package vapi is the voice-call provider client. It places outbound calls
// and fetches post-call details, mapping transport failures onto the
// campaign error taxonomy so callers can branch with errors.Is.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dialer_backend/internal/campaign/domain"
	"dialer_backend/platform/logger"
)

type Client struct {
	baseURL     string
	apiKey      string
	assistantID string
	http        *http.Client
	log         *logger.Logger
}

func NewClient(baseURL, apiKey, assistantID string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		assistantID: assistantID,
		http:        &http.Client{Timeout: timeout},
		log:         log,
	}
}

// Customer identifies who is being called. Number must already be E.164.
type Customer struct {
	Number    string `json:"number"`
	Name      string `json:"name"`
	Extension string `json:"extension,omitempty"`
}

type callRequest struct {
	PhoneNumberID      string              `json:"phoneNumberId"`
	Customer           Customer            `json:"customer"`
	AssistantID        string              `json:"assistantId"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

type callResponse struct {
	ID                  string `json:"id"`
	PhoneCallProviderID string `json:"phoneCallProviderId"`
}

// CallResult carries the two identifiers written back into the lead row.
type CallResult struct {
	PhoneCallProviderID string
	CallID              string
}

// InitiateCall places a call from the given source number. The assistant id
// comes from client configuration; variables become assistant overrides
// visible to the in-call script.
func (c *Client) InitiateCall(ctx context.Context, phoneNumberID string, customer Customer, variables map[string]string) (CallResult, error) {
	reqBody := callRequest{
		PhoneNumberID: phoneNumberID,
		Customer:      customer,
		AssistantID:   c.assistantID,
	}
	if len(variables) > 0 {
		reqBody.AssistantOverrides = &assistantOverrides{VariableValues: variables}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return CallResult{}, fmt.Errorf("marshal call request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call", bytes.NewReader(payload))
	if err != nil {
		return CallResult{}, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return CallResult{}, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := c.mapStatus(resp); err != nil {
		return CallResult{}, err
	}

	var body callResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CallResult{}, fmt.Errorf("%w: decode call response: %v", domain.ErrProviderUnavailable, err)
	}
	if body.PhoneCallProviderID == "" || body.ID == "" {
		return CallResult{}, fmt.Errorf("%w: call response missing identifiers", domain.ErrProviderUnavailable)
	}

	return CallResult{
		PhoneCallProviderID: body.PhoneCallProviderID,
		CallID:              body.ID,
	}, nil
}

type callDetails struct {
	ID        string       `json:"id"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   time.Time    `json:"endedAt"`
	Cost      float64      `json:"cost"`
	Artifact  callArtifact `json:"artifact"`
}

type callArtifact struct {
	RecordingURL string             `json:"recordingUrl"`
	ToolCalls    []artifactToolCall `json:"toolCalls"`
}

type artifactToolCall struct {
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallMetrics are the post-call figures written during reconciliation.
type CallMetrics struct {
	DurationSeconds int
	Price           float64
}

// FetchCallMetrics looks a call up by its provider correlation id. The
// provider may not know the id yet right after the call ends; that case is
// ErrMetricsUnavailable and the caller retries reconciliation later.
func (c *Client) FetchCallMetrics(ctx context.Context, phoneCallProviderID string) (CallMetrics, error) {
	details, err := c.getCall(ctx, phoneCallProviderID)
	if err != nil {
		return CallMetrics{}, err
	}

	if details.StartedAt.IsZero() || details.EndedAt.IsZero() {
		return CallMetrics{}, fmt.Errorf("%w: call %s has no timestamps yet", domain.ErrMetricsUnavailable, phoneCallProviderID)
	}

	duration := int(details.EndedAt.Sub(details.StartedAt).Round(time.Second).Seconds())
	if duration < 0 {
		duration = 0
	}
	return CallMetrics{
		DurationSeconds: duration,
		Price:           details.Cost,
	}, nil
}

// FetchCallAnswers extracts tool-call answers recorded in the call
// artifact, keyed by tool name. Each answer is the argument matching the
// tool name when present, otherwise the sole argument value.
func (c *Client) FetchCallAnswers(ctx context.Context, phoneCallProviderID string) (map[string]string, error) {
	details, err := c.getCall(ctx, phoneCallProviderID)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]string)
	for _, tc := range details.Artifact.ToolCalls {
		name := tc.Function.Name
		if name == "" {
			continue
		}
		if value, ok := argumentValue(tc.Function.Arguments, name); ok {
			answers[name] = value
		}
	}
	return answers, nil
}

func argumentValue(arguments map[string]any, name string) (string, bool) {
	if raw, ok := arguments[name]; ok && raw != nil {
		return fmt.Sprint(raw), true
	}
	if len(arguments) == 1 {
		for _, raw := range arguments {
			if raw == nil {
				return "", false
			}
			return fmt.Sprint(raw), true
		}
	}
	return "", false
}

func (c *Client) getCall(ctx context.Context, phoneCallProviderID string) (callDetails, error) {
	endpoint := fmt.Sprintf("%s/call?phoneCallProviderId=%s", c.baseURL, url.QueryEscape(phoneCallProviderID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return callDetails{}, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return callDetails{}, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return callDetails{}, fmt.Errorf("%w: call %s", domain.ErrMetricsUnavailable, phoneCallProviderID)
	}
	if err := c.mapStatus(resp); err != nil {
		return callDetails{}, err
	}

	var calls []callDetails
	if err := json.NewDecoder(resp.Body).Decode(&calls); err != nil {
		return callDetails{}, fmt.Errorf("%w: decode call details: %v", domain.ErrProviderUnavailable, err)
	}
	if len(calls) == 0 {
		return callDetails{}, fmt.Errorf("%w: call %s", domain.ErrMetricsUnavailable, phoneCallProviderID)
	}
	return calls[0], nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) mapStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(data))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrProviderThrottled, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: provider returned %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: provider returned %d: %s", domain.ErrProviderRejected, resp.StatusCode, msg)
	}
}
