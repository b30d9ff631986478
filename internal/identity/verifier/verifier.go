// Package verifier checks zero-knowledge passport proofs against an external
// verification backend.
package verifier

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"travelproof/internal/identity/models"
	"travelproof/internal/platform/config"
)

// ErrNotConfigured is returned by New when no real verifier can be built and
// fail-open is not permitted.
var ErrNotConfigured = errors.New("proof verifier not configured")

// Result is the outcome of one verification.
type Result struct {
	Valid      bool
	SubjectID  string
	Attributes map[string]any
	Assertions models.Assertions
	// Degraded marks results produced without a cryptographic check.
	Degraded bool
}

// Verifier checks a proof and its public signals.
type Verifier interface {
	Verify(ctx context.Context, proof any, publicSignals []any) (*Result, error)
}

// New selects the verifier for cfg. It fails closed: without a backend URL it
// returns ErrNotConfigured unless fail-open was explicitly allowed outside
// production, in which case a PermissiveVerifier is returned and the degraded
// mode is logged at error level.
func New(cfg config.Server, client *http.Client, logger *slog.Logger) (Verifier, error) {
	if cfg.Verifier.URL != "" {
		return NewHTTPVerifier(cfg.Verifier.URL, cfg.Verifier.Scope, cfg.Verifier.Timeout, client), nil
	}
	if cfg.FailOpenAllowed() {
		logger.Error("proof verifier running in permissive mode; proofs are NOT checked",
			"environment", cfg.Environment,
			"trust", "degraded",
		)
		return NewPermissiveVerifier(logger), nil
	}
	return nil, ErrNotConfigured
}

// filterAttributes keeps only the disclosures an IdentityRecord carries,
// renamed to their record attribute names. A record-named key wins over its
// snake_case alias.
func filterAttributes(in map[string]any) map[string]any {
	out := make(map[string]any, len(models.KnownAttributes))
	for field, v := range in {
		name, ok := models.CanonicalAttribute(field)
		if !ok || v == nil {
			continue
		}
		if _, seen := out[name]; seen && field != name {
			continue
		}
		out[name] = v
	}
	return out
}
