package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/middleware"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

// validate checks request DTOs against their struct tags.
var validate = validator.New()

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a structured error response with the given status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().
		Str("code", code).
		Str("error", message).
		Int("status", status).
		Msg("request rejected")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: middleware.RequestIDFromContext(r.Context()),
	})
}

// writeServiceError maps a service failure onto the wire. Domain errors keep
// their message; anything else is reported as the fallback so store internals
// never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		writeError(w, r, statusForCode(de.Code), de.Code, de.Message, logger)
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, fallback, logger)
}

// statusForCode translates a domain error code into an HTTP status.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition, model.ErrCodePersistenceConflict:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses and validates a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewValidationError("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.NewValidationError("invalid field %s", verrs[0].Namespace())
		}
		return model.NewValidationError("invalid request body")
	}
	return nil
}

// actorFrom extracts the acting user from the X-Actor header, nil when the
// caller did not identify anyone.
func actorFrom(r *http.Request) *string {
	actor := strings.TrimSpace(r.Header.Get("X-Actor"))
	if actor == "" {
		return nil
	}
	return &actor
}

// pathSegments splits the part of path after prefix into its segments.
func pathSegments(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
