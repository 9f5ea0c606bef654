package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const requesterKey contextKey = iota

// requesterFrom returns the authenticated user of the request.
func requesterFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(requesterKey).(uuid.UUID)
	return id
}

// authMiddleware rejects requests without a valid bearer token
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		userID, err := s.auth.Verify(strings.TrimSpace(token))
		if err != nil {
			s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected token")
			writeError(w, http.StatusUnauthorized, "Invalid authorization token")
			return
		}

		ctx := context.WithValue(r.Context(), requesterKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs all incoming requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer to capture the status code
		rw := &responseWriter{w, http.StatusOK}

		next.ServeHTTP(rw, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Str("duration", time.Since(start).String()).
			Msg("Request processed")
	})
}

// recoveryMiddleware turns a handler panic into a 500
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Handler panicked")
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
