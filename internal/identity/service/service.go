package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier,RecordStore,EventPublisher

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"travelproof/internal/identity/models"
	"travelproof/internal/identity/verifier"
	"travelproof/internal/platform/events"
	pkgerrors "travelproof/pkg/domain-errors"
	"travelproof/pkg/platform/sentinel"
	"travelproof/pkg/requestcontext"
)

// Messages returned in SubmitProofResponse.Message.
const (
	MessageIncomplete   = "Verification data incomplete"
	MessageVerified     = "Verification successful"
	MessageInvalid      = "Proof verification failed"
	MessageUnavailable  = "Verification could not be completed"
	MessageNotPersisted = "Verification succeeded but the result could not be stored"
	MessageFound        = "Verification record found"
	MessagePlaceholder  = "Development placeholder record created"
)

var proofSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "travelproof_proof_submissions_total",
	Help: "Proof submissions by outcome",
}, []string{"outcome"})

type Verifier interface {
	Verify(ctx context.Context, proof any, publicSignals []any) (*verifier.Result, error)
}

type RecordStore interface {
	Put(ctx context.Context, key string, record models.IdentityRecord) error
	FindByKey(ctx context.Context, key string) (*models.IdentityRecord, error)
	FindLatestBySubject(ctx context.Context, subjectID string) (*models.IdentityRecord, error)
	Keys(ctx context.Context) ([]string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service accepts proofs from the scanning app and serves the resulting
// records back to polling clients.
type Service struct {
	verifier     Verifier
	store        RecordStore
	publisher    EventPublisher
	logger       *slog.Logger
	placeholders bool
}

type Option func(*Service)

// WithPublisher emits an identity_verified event per stored record.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithDevPlaceholders enables synthesized records for unknown keys. Callers
// must only pass true outside production.
func WithDevPlaceholders(enabled bool) Option {
	return func(s *Service) { s.placeholders = enabled }
}

func New(v Verifier, store RecordStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{verifier: v, store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitProof verifies a proof bundle and stores the resulting record. It
// never returns an error: every failure is reported in the response so the
// scanning app always receives a well-formed answer.
func (s *Service) SubmitProof(ctx context.Context, req models.SubmitProofRequest) *models.SubmitProofResponse {
	if isEmpty(req.Proof) || len(req.PublicSignals) == 0 {
		proofSubmissions.WithLabelValues("incomplete").Inc()
		return failure(MessageIncomplete)
	}

	res, err := s.verifier.Verify(ctx, req.Proof, req.PublicSignals)
	if err != nil {
		proofSubmissions.WithLabelValues("error").Inc()
		s.logger.ErrorContext(ctx, "proof verification errored", "error", err, "user_id", req.UserID)
		return failure(MessageUnavailable)
	}
	if res == nil || !res.Valid {
		proofSubmissions.WithLabelValues("invalid").Inc()
		s.logger.InfoContext(ctx, "proof rejected", "user_id", req.UserID)
		return failure(MessageInvalid)
	}
	if res.Degraded {
		s.logger.WarnContext(ctx, "storing record from unchecked proof", "trust", "degraded", "user_id", req.UserID)
	}

	record := s.buildRecord(ctx, req.UserID, res)
	if err := s.store.Put(ctx, record.SessionID, record); err != nil {
		proofSubmissions.WithLabelValues("store_error").Inc()
		s.logger.ErrorContext(ctx, "failed to store verification record", "error", err, "session_id", record.SessionID)
		return failure(MessageNotPersisted)
	}
	proofSubmissions.WithLabelValues("verified").Inc()
	s.logger.InfoContext(ctx, "identity verified",
		"session_id", record.SessionID,
		"subject_id", record.SubjectID,
		"proof_reference", record.ProofReference,
	)
	s.publish(ctx, record)

	return &models.SubmitProofResponse{
		Status:       "success",
		Result:       true,
		Message:      MessageVerified,
		PassportData: &record,
	}
}

func (s *Service) buildRecord(ctx context.Context, userID string, res *verifier.Result) models.IdentityRecord {
	subject := res.SubjectID
	if subject == "" {
		subject = models.UnknownSubject
	}
	key := userID
	if key == "" {
		key = subject
	}
	if key == models.UnknownSubject {
		key = uuid.NewString()
	}
	attrs := res.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return models.IdentityRecord{
		SessionID:           key,
		SubjectID:           subject,
		DisclosedAttributes: attrs,
		Assertions:          res.Assertions,
		ProofReference:      uuid.NewString(),
		VerifiedAt:          requestcontext.Now(ctx),
	}
}

func (s *Service) publish(ctx context.Context, record models.IdentityRecord) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeIdentityVerified,
		SessionID:  record.SessionID,
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: record.VerifiedAt,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish verification event", "error", err)
	}
}

// FetchRecord resolves userID first as an exact key, then as a subject id.
// When neither matches and placeholders are enabled, a development record is
// stored and returned.
func (s *Service) FetchRecord(ctx context.Context, userID string) (*models.IdentityRecord, string, error) {
	if userID == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeBadRequest, "userId is required")
	}

	rec, err := s.store.FindByKey(ctx, userID)
	if err == nil {
		return rec, MessageFound, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read verification record")
	}

	rec, err = s.store.FindLatestBySubject(ctx, userID)
	if err == nil {
		return rec, MessageFound, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read verification record")
	}

	if s.placeholders {
		placeholder := s.placeholder(ctx, userID)
		if err := s.store.Put(ctx, userID, placeholder); err != nil {
			return nil, "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to store placeholder record")
		}
		s.logger.WarnContext(ctx, "created development placeholder record", "user_id", userID)
		return &placeholder, MessagePlaceholder, nil
	}
	return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "no verification record for user")
}

func (s *Service) placeholder(ctx context.Context, userID string) models.IdentityRecord {
	return models.IdentityRecord{
		SessionID: userID,
		SubjectID: models.UnknownSubject,
		DisclosedAttributes: map[string]any{
			models.AttrName:        "Development User",
			models.AttrNationality: "UNK",
		},
		Assertions:     models.Assertions{IsHuman: true, IsAdult: true, NotSanctioned: true},
		ProofReference: "placeholder-" + uuid.NewString(),
		VerifiedAt:     requestcontext.Now(ctx),
	}
}

// KnownKeys lists stored keys for diagnosing misses. Errors yield an empty list.
func (s *Service) KnownKeys(ctx context.Context) []string {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list record keys", "error", err)
		return nil
	}
	return keys
}

func failure(message string) *models.SubmitProofResponse {
	return &models.SubmitProofResponse{Status: "success", Result: false, Message: message}
}

// isEmpty treats nil, empty strings, and empty maps or slices as a missing proof.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
