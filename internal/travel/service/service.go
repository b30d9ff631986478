package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Gateway,EventPublisher

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"travelproof/internal/platform/events"
	"travelproof/internal/travel/chain"
	"travelproof/internal/travel/models"
	dErrors "travelproof/pkg/domain-errors"
	strutil "travelproof/pkg/platform/strings"
	"travelproof/pkg/requestcontext"
)

// MessageAlreadyVisited is the failure message for a duplicate (wallet, country).
const MessageAlreadyVisited = "POAP already minted for this country"

var mintAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "travelproof_mint_attempts_total",
	Help: "Proof-of-travel mint attempts by outcome",
}, []string{"outcome"})

type Gateway interface {
	HasVisited(ctx context.Context, wallet, countryCode string) bool
	MintProof(ctx context.Context, wallet, countryCode, countryName string, lat, lng int64) (string, error)
	ListVisitedCountries(ctx context.Context, wallet string) ([]string, error)
	CanMint() bool
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service orchestrates proof-of-travel issuance against the chain gateway.
type Service struct {
	gateway   Gateway
	publisher EventPublisher
	logger    *slog.Logger
}

// New builds the issuance service. A nil gateway means issuance is not
// configured and every call fails with a configuration error.
func New(gateway Gateway, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, publisher: publisher, logger: logger}
}

// IssueProof validates the claim, rejects known duplicates, and mints. The
// pre-check is advisory; a duplicate revert from the contract is reported the
// same way as a positive pre-check.
func (s *Service) IssueProof(ctx context.Context, claim models.TravelClaim) (*models.PoapRecord, error) {
	claim = claim.Normalize()
	if err := claim.Validate(); err != nil {
		mintAttempts.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if s.gateway == nil || !s.gateway.CanMint() {
		mintAttempts.WithLabelValues("not_configured").Inc()
		return nil, dErrors.New(dErrors.CodeConfiguration, "POAP minting is not configured")
	}

	if s.gateway.HasVisited(ctx, claim.WalletAddress, claim.CountryCode) {
		return nil, s.duplicate(ctx, claim, "precheck")
	}

	lat, lng := models.EncodeCoordinates(claim.Lat(), claim.Lng())
	txHash, err := s.gateway.MintProof(ctx, claim.WalletAddress, claim.CountryCode, claim.Country, lat, lng)
	if err != nil {
		if chain.IsDuplicateVisit(err) {
			return nil, s.duplicate(ctx, claim, "contract")
		}
		return nil, s.mintFailed(ctx, claim, err)
	}

	record := &models.PoapRecord{
		ID:             uuid.NewString(),
		WalletAddress:  claim.WalletAddress,
		Country:        claim.Country,
		CountryCode:    claim.CountryCode,
		Coordinates:    [2]float64{claim.Lat(), claim.Lng()},
		MintedAt:       requestcontext.Now(ctx),
		TxHash:         txHash,
		ProofReference: uuid.NewString(),
	}
	mintAttempts.WithLabelValues("minted").Inc()
	s.logger.InfoContext(ctx, "poap minted",
		"poap_id", record.ID,
		"wallet_address", record.WalletAddress,
		"country_code", record.CountryCode,
		"tx_hash", record.TxHash,
	)
	s.publish(ctx, events.Event{
		Type:          events.TypePoapMinted,
		WalletAddress: record.WalletAddress,
		CountryCode:   record.CountryCode,
		PoapID:        record.ID,
		TxHash:        record.TxHash,
		OccurredAt:    record.MintedAt,
	})
	return record, nil
}

func (s *Service) duplicate(ctx context.Context, claim models.TravelClaim, source string) error {
	mintAttempts.WithLabelValues("duplicate").Inc()
	s.logger.InfoContext(ctx, "duplicate visit rejected",
		"wallet_address", claim.WalletAddress,
		"country_code", claim.CountryCode,
		"source", source,
	)
	s.publish(ctx, events.Event{
		Type:          events.TypeDuplicateVisit,
		WalletAddress: claim.WalletAddress,
		CountryCode:   claim.CountryCode,
		Reason:        source,
		OccurredAt:    requestcontext.Now(ctx),
	})
	return dErrors.New(dErrors.CodeConflict, MessageAlreadyVisited)
}

func (s *Service) mintFailed(ctx context.Context, claim models.TravelClaim, err error) error {
	category := chain.CategoryOf(err)
	mintAttempts.WithLabelValues(string(category)).Inc()
	s.logger.ErrorContext(ctx, "poap mint failed",
		"wallet_address", claim.WalletAddress,
		"country_code", claim.CountryCode,
		"category", category,
		"error", err,
	)
	s.publish(ctx, events.Event{
		Type:          events.TypeMintFailed,
		WalletAddress: claim.WalletAddress,
		CountryCode:   claim.CountryCode,
		Reason:        string(category),
		OccurredAt:    requestcontext.Now(ctx),
	})

	message := "failed to mint POAP"
	var ce *chain.Error
	if errors.As(err, &ce) {
		message += ": " + ce.Message
	}
	switch category {
	case chain.ErrorConfiguration:
		return dErrors.Wrap(err, dErrors.CodeConfiguration, message)
	case chain.ErrorInvalidInput:
		return dErrors.Wrap(err, dErrors.CodeValidation, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish issuance event", "type", event.Type, "error", err)
	}
}

// VisitedCountries lists the wallet's minted country codes.
func (s *Service) VisitedCountries(ctx context.Context, wallet string) ([]string, error) {
	if err := s.readable(wallet); err != nil {
		return nil, err
	}
	countries, err := s.gateway.ListVisitedCountries(ctx, wallet)
	if err != nil {
		if chain.IsRetryable(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "chain temporarily unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read visited countries")
	}
	return strutil.DedupeCountryCodes(countries), nil
}

// HasVisited answers a single lookup. It inherits the gateway's advisory
// semantics: read failures report false.
func (s *Service) HasVisited(ctx context.Context, wallet, countryCode string) (bool, error) {
	if err := s.readable(wallet); err != nil {
		return false, err
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		return false, dErrors.New(dErrors.CodeValidation, "countryCode is required")
	}
	return s.gateway.HasVisited(ctx, wallet, countryCode), nil
}

func (s *Service) readable(wallet string) error {
	if s.gateway == nil {
		return dErrors.New(dErrors.CodeConfiguration, "chain access is not configured")
	}
	if wallet == "" {
		return dErrors.New(dErrors.CodeBadRequest, "walletAddress is required")
	}
	if !common.IsHexAddress(wallet) {
		return dErrors.New(dErrors.CodeValidation, "walletAddress must be a hex address")
	}
	return nil
}
