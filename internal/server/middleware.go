package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger assigns a request ID and logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r.WithContext(ctx))

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     recorder.status,
			"duration":   time.Since(start).String(),
		}).Info("request handled")
	})
}

// logFor returns a log entry carrying the request's ID, if one was
// assigned.
func (s *Server) logFor(r *http.Request) *logrus.Entry {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return s.log.WithField("request_id", id)
	}
	return logrus.NewEntry(s.log)
}
