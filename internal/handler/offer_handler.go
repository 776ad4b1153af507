package handler

import (
	"net/http"
	"time"

	"notes-portal/internal/model"
	"notes-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OfferHandler handles offer-related HTTP requests.
type OfferHandler struct {
	service service.OfferService
	logger  zerolog.Logger
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(service service.OfferService, logger zerolog.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		logger:  logger.With().Str("handler", "offer").Logger(),
	}
}

// Create handles POST /api/admin/offers requests.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OfferRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	offer, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// GetByID handles GET /api/admin/offers/{id} requests.
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}

	offer, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Update handles PATCH /api/admin/offers/{id} requests. Fields absent from
// the body are left unchanged.
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}

	var patch model.OfferPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}

	offer, err := h.service.Update(r.Context(), id, &patch)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Delete handles DELETE /api/admin/offers/{id} requests.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListActive handles GET /api/offers/active requests. The optional asOf
// query parameter (RFC 3339) pins the listing instant.
func (h *OfferHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrorResponse{
				Error:   model.ErrCodeValidation,
				Message: "asOf must be an RFC 3339 timestamp",
				Field:   "asOf",
			}, h.logger)
			return
		}
		asOf = parsed.UTC()
	}

	offers, err := h.service.ListActive(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

// Evaluate handles POST /api/offers/evaluate requests. A rejection is a
// normal result and is returned with status 200.
func (h *OfferHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req model.EvaluateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Evaluate(r.Context(), req.OfferLookup, req.RedemptionContext)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Redeem handles POST /api/offers/redeem requests.
func (h *OfferHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req model.RedeemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Redeem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Checkout handles POST /api/offers/checkout requests. The evaluation
// always runs at the server's current time.
func (h *OfferHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.EvaluateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.Now = time.Time{}

	result, err := h.service.Checkout(r.Context(), req.OfferLookup, req.RedemptionContext)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *OfferHandler) offerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "invalid offer ID format",
			Field:   "id",
		}, h.logger)
		return uuid.Nil, false
	}
	return id, true
}
