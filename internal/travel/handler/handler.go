package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelproof/internal/platform/middleware"
	"travelproof/internal/travel/chain"
	"travelproof/internal/travel/models"
	dErrors "travelproof/pkg/domain-errors"
	"travelproof/pkg/platform/httputil"
)

// Service defines the issuance operations the HTTP layer needs.
type Service interface {
	IssueProof(ctx context.Context, claim models.TravelClaim) (*models.PoapRecord, error)
	VisitedCountries(ctx context.Context, wallet string) ([]string, error)
	HasVisited(ctx context.Context, wallet, countryCode string) (bool, error)
}

// Handler serves proof-of-travel minting and visit lookups.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the POAP routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/poap/mint", h.handleMint)
	r.Get("/api/poap/visited", h.handleVisited)
	r.Get("/api/poap/visited/{countryCode}", h.handleHasVisited)
}

// handleMint always answers with a MintResponse so clients read one shape;
// the status code carries the error class.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var claim models.TravelClaim
	if err := json.NewDecoder(r.Body).Decode(&claim); err != nil {
		h.logger.WarnContext(ctx, "invalid mint request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, models.MintResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	record, err := h.service.IssueProof(ctx, claim)
	if err != nil {
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeInternal || code == dErrors.CodeConfiguration {
			h.logger.ErrorContext(ctx, "mint request failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		resp := models.MintResponse{
			Success: false,
			Message: dErrors.MessageOf(err),
		}
		if code == dErrors.CodeInternal {
			resp.Error = chain.Detail(err)
		}
		httputil.WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.MintResponse{
		Success:  true,
		Message:  "POAP minted successfully",
		PoapData: record,
	})
}

func (h *Handler) handleVisited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet := r.URL.Query().Get("walletAddress")

	countries, err := h.service.VisitedCountries(ctx, wallet)
	if err != nil {
		h.logger.WarnContext(ctx, "visited lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"wallet_address", wallet,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	if countries == nil {
		countries = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.VisitedResponse{
		WalletAddress: wallet,
		Countries:     countries,
	})
}

func (h *Handler) handleHasVisited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet := r.URL.Query().Get("walletAddress")
	countryCode := chi.URLParam(r, "countryCode")

	visited, err := h.service.HasVisited(ctx, wallet, countryCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.HasVisitedResponse{
		WalletAddress: wallet,
		CountryCode:   countryCode,
		Visited:       visited,
	})
}
