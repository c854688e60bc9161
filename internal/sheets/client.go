// Package sheets is a minimal Google Sheets values API client. It covers
// the two operations the campaign needs, reading a range and applying a
// batched update, and nothing else.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"dialer_backend/platform/logger"

	"golang.org/x/oauth2/google"
)

const spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// ErrQuotaExceeded is returned when the API answers 429. The caller decides
// whether to back off and retry.
var ErrQuotaExceeded = errors.New("sheets quota exceeded")

type Client struct {
	baseURL       string
	spreadsheetID string
	http          *http.Client
	log           *logger.Logger
}

// NewClient builds a client authenticated with a service-account key file.
// The JWT config handles token refresh on the underlying transport.
func NewClient(ctx context.Context, baseURL, spreadsheetID, credentialsFile string, log *logger.Logger) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(data, spreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}

	httpClient := jwtConfig.Client(ctx)
	httpClient.Timeout = 30 * time.Second

	return newClient(baseURL, spreadsheetID, httpClient, log), nil
}

// NewClientWithHTTP builds a client over an injected HTTP client. Used in
// tests and for deployments that terminate auth elsewhere.
func NewClientWithHTTP(baseURL, spreadsheetID string, httpClient *http.Client, log *logger.Logger) *Client {
	return newClient(baseURL, spreadsheetID, httpClient, log)
}

func newClient(baseURL, spreadsheetID string, httpClient *http.Client, log *logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		http:          httpClient,
		log:           log,
	}
}

type valuesResponse struct {
	Values [][]any `json:"values"`
}

// GetValues reads a range ("'Lead list'!A1:R") and returns its rows as
// strings. A range with no data returns an empty slice.
func (c *Client) GetValues(ctx context.Context, readRange string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(readRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var body valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode sheets response: %w", err)
	}

	rows := make([][]string, len(body.Values))
	for i, raw := range body.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			if cell == nil {
				continue
			}
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// ValueRange is one range/value pair in a batch update.
type ValueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

type batchUpdateRequest struct {
	ValueInputOption string       `json:"valueInputOption"`
	Data             []ValueRange `json:"data"`
}

// BatchUpdate writes all given ranges in a single values:batchUpdate call.
func (c *Client) BatchUpdate(ctx context.Context, data []ValueRange) error {
	if len(data) == 0 {
		return nil
	}

	payload, err := json.Marshal(batchUpdateRequest{
		ValueInputOption: "RAW",
		Data:             data,
	})
	if err != nil {
		return fmt.Errorf("marshal batch update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values:batchUpdate",
		c.baseURL, url.PathEscape(c.spreadsheetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheets request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(data))
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
	}
	return fmt.Errorf("sheets api returned %d: %s", resp.StatusCode, msg)
}
