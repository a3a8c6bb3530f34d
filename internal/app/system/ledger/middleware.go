// internal/app/system/ledger/middleware.go
package ledger

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	ledgerstore "github.com/dalemusser/strataview/internal/app/store/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ctxKey is the context key type for ledger data.
type ctxKey int

const ctxKeyRequestID ctxKey = iota

// Config holds configuration for the ledger middleware.
type Config struct {
	// Store is the ledger store for persisting entries.
	Store *ledgerstore.Store

	// Logger for logging errors.
	Logger *zap.Logger

	// MaxBodyPreview is the maximum number of characters to capture from request body.
	// Set to 0 to disable body preview capture.
	MaxBodyPreview int

	// HeadersToCapture is a list of header names to capture.
	// Sensitive headers like Authorization are automatically redacted.
	HeadersToCapture []string

	// ExcludePaths is a list of path prefixes to exclude from logging.
	ExcludePaths []string

	// OnlyErrors persists entries only for responses with status >= 400.
	OnlyErrors bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(store *ledgerstore.Store, logger *zap.Logger) Config {
	return Config{
		Store:          store,
		Logger:         logger,
		MaxBodyPreview: 500,
		HeadersToCapture: []string{
			"Content-Type",
			"Accept",
			"User-Agent",
			"X-Request-ID",
			"X-Forwarded-For",
		},
		ExcludePaths: []string{
			"/health",
			"/ready",
			"/readyz",
			"/livez",
		},
		OnlyErrors: true,
	}
}

// Middleware returns HTTP middleware that logs requests to the ledger.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			requestID := uuid.New().String()
			clientRequestID := r.Header.Get("X-Request-ID")
			startTime := time.Now()

			// Capture request body if needed
			var bodyPreview string
			var bodySize int64
			if cfg.MaxBodyPreview > 0 && r.Body != nil && r.ContentLength > 0 {
				body, err := io.ReadAll(r.Body)
				if err == nil {
					bodySize = int64(len(body))
					preview := string(body)
					if len(preview) > cfg.MaxBodyPreview {
						preview = preview[:cfg.MaxBodyPreview] + "..."
					}
					bodyPreview = preview
					// Restore body for handler
					r.Body = io.NopCloser(bytes.NewReader(body))
				}
			}

			// Capture headers
			headers := make(map[string]string)
			for _, name := range cfg.HeadersToCapture {
				if value := r.Header.Get(name); value != "" {
					if strings.EqualFold(name, "Authorization") {
						headers[name] = "[redacted]"
					} else {
						headers[name] = value
					}
				}
			}

			ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", requestID)

			// Wrap response writer to capture status code and size
			wrapped := &responseWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			if cfg.OnlyErrors && wrapped.statusCode < 400 {
				return
			}

			endTime := time.Now()
			entry := ledgerstore.Entry{
				RequestID:          requestID,
				ClientRequestID:    clientRequestID,
				Method:             r.Method,
				Path:               path,
				Query:              r.URL.RawQuery,
				Headers:            headers,
				RemoteIP:           extractIP(r),
				RequestBodySize:    bodySize,
				RequestBodyPreview: bodyPreview,
				RequestContentType: r.Header.Get("Content-Type"),
				StatusCode:         wrapped.statusCode,
				ResponseSize:       wrapped.bytesWritten,
				DurationMs:         float64(endTime.Sub(startTime).Microseconds()) / 1000.0,
				StartedAt:          startTime,
				CompletedAt:        endTime,
			}

			// Store entry asynchronously to not block response
			go func() {
				storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := cfg.Store.Create(storeCtx, entry); err != nil {
					cfg.Logger.Error("failed to store ledger entry",
						zap.String("request_id", requestID),
						zap.Error(err))
				}
			}()
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code and bytes written.
type responseWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Flush implements http.Flusher.
func (rw *responseWrapper) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// extractIP extracts the client IP from the request.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// GetRequestID returns the request ID for the current request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}
