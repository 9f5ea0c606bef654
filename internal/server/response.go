package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, key string, value interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"status": "success",
		key:      value,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// writeServiceError maps a service failure onto its HTTP status
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, apperr.Message(err))
	case apperr.KindForbidden:
		log.Debug().Err(err).Msg("Request forbidden")
		writeError(w, http.StatusForbidden, apperr.Message(err))
	case apperr.KindConflict:
		writeError(w, http.StatusConflict, apperr.Message(err))
	case apperr.KindInvalidInput:
		writeError(w, http.StatusBadRequest, apperr.Message(err))
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into req and validates it
func decode(w http.ResponseWriter, r *http.Request, log zerolog.Logger, req interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		log.Debug().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		log.Debug().Err(err).Msg("Validation failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathID parses the UUID path variable name
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}
