package api

import (
	"encoding/json"
	"net/http"
	"time"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// RecoveryMiddleware recovers panics and writes JSON errors
func (s *Server) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err := kvErr.RecoverError(rec)
				s.logger.Error("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				handleError(w, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs request details
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		s.logger.Info("%s %s %d %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// handleError writes an error response to the client
func handleError(w http.ResponseWriter, err error) {
	var statusCode int

	switch {
	case kvErr.IsNotFound(err):
		statusCode = http.StatusNotFound
	case kvErr.IsInvalidInput(err), kvErr.IsInvalidCommand(err):
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
	}

	response := ErrorResponse{}
	response.Error.Type = errorType(err)
	response.Error.Message = err.Error()

	writeJSON(w, response, statusCode)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// responseWriter is a custom response writer that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
