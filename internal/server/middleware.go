package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// RequestIDMiddleware assigns each request an id, reusing a well-formed
// incoming X-Request-ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		// Store in context for downstream use
		c.Set("request_id", requestID)

		// Add to response headers for client correlation
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes and
// reports it to observer when one is given.
func LoggingMiddleware(logger *slog.Logger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Wrap the response writer to capture response size
		rw := newResponseWriter(c.Writer)
		c.Writer = rw

		c.Next()

		latency := time.Since(start)
		// Use Gin's writer Status() which handles aborted requests correctly
		status := c.Writer.Status()
		route := c.FullPath()

		if observer != nil {
			observer.ObserveRequest(c.Request.Method, route, status, latency)
		}

		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"latency_ms", float64(latency.Microseconds()) / 1000,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"response_size", rw.Size(),
		}

		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "Request failed - server error", attrs...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(ctx, "Request failed - client error", attrs...)
		default:
			logger.InfoContext(ctx, "Request completed", attrs...)
		}
	}
}

// CORSMiddleware allows credentialed requests from the configured origins.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Accept", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
