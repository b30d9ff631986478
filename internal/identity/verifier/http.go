package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"travelproof/internal/identity/models"
)

type verifyRequest struct {
	Proof         any    `json:"proof"`
	PublicSignals []any  `json:"publicSignals"`
	Scope         string `json:"scope"`
}

type verifyResponse struct {
	Valid      bool              `json:"valid"`
	SubjectID  string            `json:"subjectId"`
	Attributes map[string]any    `json:"attributes"`
	Assertions models.Assertions `json:"assertions"`
}

// HTTPVerifier delegates the cryptographic check to a verification backend.
type HTTPVerifier struct {
	url     string
	scope   string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPVerifier builds a verifier posting to url. A nil client uses
// http.DefaultClient.
func NewHTTPVerifier(url, scope string, timeout time.Duration, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{url: url, scope: scope, timeout: timeout, client: client}
}

func (v *HTTPVerifier) Verify(ctx context.Context, proof any, publicSignals []any) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{Proof: proof, PublicSignals: publicSignals, Scope: v.scope})
	if err != nil {
		return nil, fmt.Errorf("encode verification request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call verification backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("verification backend returned status %d", resp.StatusCode)
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode verification response: %w", err)
	}
	if !out.Valid {
		return &Result{Valid: false}, nil
	}
	subject := out.SubjectID
	if subject == "" {
		subject = models.UnknownSubject
	}
	return &Result{
		Valid:      true,
		SubjectID:  subject,
		Attributes: filterAttributes(out.Attributes),
		Assertions: out.Assertions,
	}, nil
}
