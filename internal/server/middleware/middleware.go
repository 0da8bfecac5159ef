// Package middleware provides request id, logging, metrics and panic recovery
// middleware for the live server.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
)

// RequestIDHeader carries the request id in responses.
const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// RequestID returns the id attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RouteFunc names the route a request matched, for metric labels.
type RouteFunc func(r *http.Request) string

// PanicFunc writes the response for a recovered panic.
type PanicFunc func(w http.ResponseWriter, r *http.Request, err error)

// Chain returns a middleware wrapper that applies request ids, logging,
// metrics and panic recovery around a handler.
func Chain(logger *slog.Logger, recorder metrics.Recorder, route RouteFunc, onPanic PanicFunc) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return func(next http.Handler) http.Handler {
		return requestIDMiddleware(loggingMiddleware(logger, recorder, route, panicRecoveryMiddleware(logger, onPanic, next)))
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// loggingMiddleware logs method, path, status, duration and remote addr, and
// counts the request per route.
func loggingMiddleware(logger *slog.Logger, recorder metrics.Recorder, route RouteFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		label := r.URL.Path
		if route != nil {
			label = route(r)
		}
		recorder.IncHTTPRequest(label, wrapped.statusCode)
		logger.Info("HTTP request",
			logfields.RequestID(RequestID(r.Context())),
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.statusCode),
			logfields.Since(start),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

func panicRecoveryMiddleware(logger *slog.Logger, onPanic PanicFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				logger.Error("HTTP handler panic",
					logfields.RequestID(RequestID(r.Context())),
					logfields.Error(err),
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method))
				if onPanic != nil {
					onPanic(w, r, err)
					return
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
