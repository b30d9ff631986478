// Package events publishes issuance outcomes for downstream consumers
// (analytics, notification workers). Publishing is best effort: a failed
// publish is logged and never fails the mint that produced it.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Type names an issuance outcome.
type Type string

const (
	TypePoapMinted       Type = "poap_minted"
	TypeDuplicateVisit   Type = "duplicate_visit_rejected"
	TypeMintFailed       Type = "poap_mint_failed"
	TypeIdentityVerified Type = "identity_verified"
)

// Event is transport-agnostic so publishers can fan out to logs or Kafka.
type Event struct {
	Type          Type      `json:"type"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	CountryCode   string    `json:"country_code,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	PoapID        string    `json:"poap_id,omitempty"`
	TxHash        string    `json:"tx_hash,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a log-backed publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "issuance event",
		"type", event.Type,
		"wallet_address", event.WalletAddress,
		"country_code", event.CountryCode,
		"session_id", event.SessionID,
		"poap_id", event.PoapID,
		"tx_hash", event.TxHash,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
