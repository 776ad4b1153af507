package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"notes-portal/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, resp model.ErrorResponse, logger zerolog.Logger) {
	resp.CorrelationID = chimw.GetReqID(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("error", resp.Error).
		Str("message", resp.Message).
		Int("status", status).
		Str("request_id", resp.CorrelationID).
		Msg("handler error")

	writeJSON(w, status, resp)
}

// writeServiceError maps a service error to its HTTP status and response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var (
		validationErr  *model.ValidationError
		conflictErr    *model.ConflictError
		eligibilityErr *model.EligibilityError
		limitErr       *model.LimitExceededError
		domainErr      *model.DomainError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: validationErr.Error(),
			Field:   validationErr.Field,
		}, logger)
	case errors.As(err, &conflictErr):
		writeError(w, r, http.StatusConflict, model.ErrorResponse{
			Error:   model.ErrCodeDuplicateCode,
			Message: conflictErr.Error(),
			Field:   conflictErr.Field,
		}, logger)
	case errors.As(err, &eligibilityErr):
		writeError(w, r, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:   model.ErrCodeNotEligible,
			Message: eligibilityErr.Reason.Message(),
			Reason:  string(eligibilityErr.Reason),
		}, logger)
	case errors.As(err, &limitErr):
		writeError(w, r, http.StatusConflict, model.ErrorResponse{
			Error:   model.ErrCodeLimitExceeded,
			Message: model.ReasonLimitExceeded.Message(),
			Reason:  string(limitErr.Scope),
		}, logger)
	case errors.As(err, &domainErr):
		writeError(w, r, domainStatus(domainErr), model.ErrorResponse{
			Error:   domainErr.Code,
			Message: domainErr.Message,
		}, logger)
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected service error")
		writeError(w, r, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		}, logger)
	}
}

func domainStatus(err *model.DomainError) int {
	switch err.Code {
	case model.ErrCodeOfferNotFound:
		return http.StatusNotFound
	case model.ErrCodeVersionConflict:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeValidation, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON reads the request body into dst, writing a 400 response and
// returning false when it is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		message := "invalid request body"
		if errors.Is(err, io.EOF) {
			message = "request body is empty"
		}
		writeError(w, r, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeInvalidJSON,
			Message: message,
		}, logger)
		return false
	}
	return true
}
