package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"gwi.com/reelpick/internal/core"
	"gwi.com/reelpick/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps a service error onto the public error taxonomy.
// The full error is logged; the client only sees the mapped message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	log := logging.Ctx(r.Context())

	var inputErr *core.InputError
	switch {
	case errors.As(err, &inputErr):
		respondError(w, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, core.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, core.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, core.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, core.ErrEmailTaken):
		respondError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, core.ErrEmptyResponse):
		log.Warn().Err(err).Msg("Completion returned no text")
		respondError(w, http.StatusInternalServerError, "No response from AI")
	case errors.Is(err, core.ErrUpstreamFailure):
		log.Error().Err(err).Msg("Completion request failed")
		respondError(w, http.StatusInternalServerError, "Failed to generate recommendation")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
