package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travelproof/internal/identity/models"
)

// ErrNoMatch means the backend has no record for the session yet.
var ErrNoMatch = errors.New("no verification record yet")

// RecordFetcher pulls the finalized record for a session.
type RecordFetcher interface {
	Fetch(ctx context.Context, sessionID string) (*models.IdentityRecord, error)
}

// HTTPFetcher reads GET /api/verify/result from the backend.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher builds a fetcher against baseURL. Each Fetch is bounded by timeout.
func NewHTTPFetcher(baseURL string, client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client, timeout: timeout}
}

// Fetch treats non-200 statuses and bodies without a record as failed attempts.
func (f *HTTPFetcher) Fetch(ctx context.Context, sessionID string) (*models.IdentityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	endpoint := f.baseURL + "/api/verify/result?userId=" + url.QueryEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch verification record: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNoMatch
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch verification record: status %d", resp.StatusCode)
	}

	var body models.FetchRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode verification record: %w", err)
	}
	if body.PassportData == nil {
		return nil, fmt.Errorf("decode verification record: response has no record")
	}
	return body.PassportData, nil
}
