package verifier

import (
	"context"
	"log/slog"

	"travelproof/internal/identity/models"
)

// PermissiveVerifier accepts every proof. Development only.
type PermissiveVerifier struct {
	logger *slog.Logger
}

func NewPermissiveVerifier(logger *slog.Logger) *PermissiveVerifier {
	return &PermissiveVerifier{logger: logger}
}

func (v *PermissiveVerifier) Verify(ctx context.Context, _ any, publicSignals []any) (*Result, error) {
	v.logger.WarnContext(ctx, "accepting proof without verification",
		"trust", "degraded",
		"public_signals", len(publicSignals),
	)
	return &Result{
		Valid:      true,
		SubjectID:  models.UnknownSubject,
		Attributes: map[string]any{},
		Assertions: models.Assertions{IsHuman: true, IsAdult: true, NotSanctioned: true},
		Degraded:   true,
	}, nil
}
