package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelproof/internal/identity/models"
	"travelproof/internal/platform/middleware"
	dErrors "travelproof/pkg/domain-errors"
	"travelproof/pkg/platform/httputil"
)

// Service defines the identity operations the HTTP layer needs.
type Service interface {
	SubmitProof(ctx context.Context, req models.SubmitProofRequest) *models.SubmitProofResponse
	FetchRecord(ctx context.Context, userID string) (*models.IdentityRecord, string, error)
	KnownKeys(ctx context.Context) []string
}

// Handler serves proof submission and record lookup.
type Handler struct {
	service Service
	logger  *slog.Logger
	// exposeKeys adds the stored key list to 404 lookups. Never set in production.
	exposeKeys bool
}

func New(service Service, logger *slog.Logger, exposeKeys bool) *Handler {
	return &Handler{service: service, logger: logger, exposeKeys: exposeKeys}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verify", h.handleSubmitProof)
	r.Get("/api/verify/result", h.handleFetchRecord)
}

// handleSubmitProof answers 200 for every parsed body; the outcome lives in
// the payload so the scanning app never sees a transport error for a bad proof.
func (h *Handler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.SubmitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid proof submission body",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.UserID == "" {
		req.UserID = r.URL.Query().Get("userId")
	}

	resp := h.service.SubmitProof(ctx, req)
	h.logger.InfoContext(ctx, "proof submission handled",
		"request_id", requestID,
		"user_id", req.UserID,
		"result", resp.Result,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFetchRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("userId")

	rec, message, err := h.service.FetchRecord(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			resp := models.FetchRecordResponse{
				Status:  "error",
				Message: dErrors.MessageOf(err),
			}
			if h.exposeKeys {
				resp.KnownKeys = h.service.KnownKeys(ctx)
			}
			httputil.WriteJSON(w, http.StatusNotFound, resp)
			return
		}
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "failed to fetch verification record",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.FetchRecordResponse{
		Status:       "success",
		Message:      message,
		PassportData: rec,
	})
}
