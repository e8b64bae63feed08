package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mpp-chat-portal/internal/auth"
	apperror "mpp-chat-portal/internal/error"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LoggingMiddleware logs HTTP requests and records request metrics
func LoggingMiddleware(logger *zap.Logger, metrics *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := routeTemplate(r)

		if metrics != nil {
			metrics.httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration.Seconds())
		}

		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("ip", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", duration),
		)
	})
}

// routeTemplate labels metrics by route pattern so IDs in paths do not create new series
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// AuthMiddleware requires a valid admin session token
func AuthMiddleware(issuer *auth.TokenIssuer, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				writeError(w, logger, apperror.NewUnauthorizedError("missing or malformed authorization header", nil))
				return
			}

			claims, err := issuer.Parse(token)
			if err != nil {
				logger.Debug("Rejected admin token", zap.Error(err))
				writeError(w, logger, apperror.NewUnauthorizedError("session is invalid or has expired", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims, token)))
		})
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperror.GetHTTPStatusCode(err))
	if encodeErr := json.NewEncoder(w).Encode(apperror.NewErrorResponse(err)); encodeErr != nil {
		logger.Error("Failed to encode error response", zap.Error(encodeErr))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for server-sent events
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker interface for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("responsewriter does not implement hijacker interface")
	}
	return hijacker.Hijack()
}
