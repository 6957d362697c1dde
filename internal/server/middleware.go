package server

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

const (
	requestIDHeader = "X-Request-ID"
	apiPrefix       = "/api/"
	maxRequestIDLen = 128
)

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), logger), "handler panic", "handler_panic",
			logging.Any("panic", recovered),
			logging.String("path", c.Request.URL.Path),
			logging.String(logging.FieldImpact, "request failed with 500"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": unexpectedErrorMessage})
	})
}

// requestID reuses a sane client-supplied X-Request-ID or mints a UUID, and
// stores it and the matched route on the request context for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		ctx := services.WithRequestID(c.Request.Context(), id)
		if route := c.FullPath(); route != "" {
			ctx = services.WithOperation(ctx, route)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
			logging.String("client_ip", c.ClientIP()),
			logging.Int("bytes", c.Writer.Size()),
		}
		log := logging.WithContext(c.Request.Context(), logger)
		if status >= http.StatusInternalServerError {
			log.Warn("request failed", logging.Args(attrs...)...)
			return
		}
		log.Info("request", logging.Args(attrs...)...)
	}
}

// cors answers preflight requests under /api/ with 204 and decorates every
// /api/ response with the allowed origin.
func cors(origins []string) gin.HandlerFunc {
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			c.Next()
			return
		}
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, "+requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
