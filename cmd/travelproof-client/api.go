package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	travelModels "travelproof/internal/travel/models"
)

// apiClient talks to the backend's POAP endpoints.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &apiClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

// apiError carries a non-2xx response that had no domain payload.
type apiError struct {
	Status int
	Code   string `json:"error"`
	Detail string `json:"error_description"`
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d %s: %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("backend returned %d %s", e.Status, e.Code)
}

// Mint returns the response body for any status; the success flag and
// message carry the outcome.
func (c *apiClient) Mint(ctx context.Context, claim travelModels.TravelClaim) (*travelModels.MintResponse, int, error) {
	body, err := json.Marshal(claim)
	if err != nil {
		return nil, 0, fmt.Errorf("encode claim: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/poap/mint", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build mint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("mint request: %w", err)
	}
	defer resp.Body.Close()

	var out travelModels.MintResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode mint response: %w", err)
	}
	return &out, resp.StatusCode, nil
}

func (c *apiClient) Visited(ctx context.Context, wallet string) (*travelModels.VisitedResponse, error) {
	var out travelModels.VisitedResponse
	err := c.get(ctx, "/api/poap/visited?walletAddress="+url.QueryEscape(wallet), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) HasVisited(ctx context.Context, wallet, countryCode string) (*travelModels.HasVisitedResponse, error) {
	var out travelModels.HasVisitedResponse
	path := "/api/poap/visited/" + url.PathEscape(countryCode) + "?walletAddress=" + url.QueryEscape(wallet)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &apiError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
