// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, structured access logging, and
// panic recovery. Recommended order:
//
//  1. RequestID()
//  2. Logger() or RedactingLogger()
//  3. Recovery()
//
// so that panics and error envelopes carry the correlation ID. The
// request-scoped logger is stored under the "logger" Gin context key and is
// retrieved with LoggerFrom.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// HeaderRequestID propagates the correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

const (
	requestIDKey = "requestID"
	loggerKey    = "logger"
	// maxRequestIDLength bounds client-supplied IDs; longer ones are replaced.
	maxRequestIDLength = 128
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID reuses the incoming X-Request-ID or generates a UUIDv4, then
// echoes it on the response and stores it in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// Logger writes one structured access log line per request and attaches a
// request-scoped zerolog.Logger to the context.
//
// Level by outcome: error for 5xx or collected Gin errors, warn for 4xx,
// info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := requestLogger(c).With().
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		emitAccess(c, l, time.Since(start))
	}
}

// requestLogger returns the base logger carrying the correlation ID, method,
// and route, plus the trace ID when the request is being traced.
func requestLogger(c *gin.Context) zerolog.Logger {
	rid, _ := c.Get(requestIDKey)
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	lc := log.With().
		Str("request_id", asString(rid)).
		Str("method", c.Request.Method).
		Str("path", path)
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		lc = lc.Str("trace_id", sc.TraceID().String())
	}
	return lc.Logger()
}

func emitAccess(c *gin.Context, l zerolog.Logger, latency time.Duration) {
	status := c.Writer.Status()
	ev := l.With().
		Int("status", status).
		Dur("latency", latency).
		Int("bytes_out", c.Writer.Size()).
		Logger()

	switch {
	case len(c.Errors) > 0:
		ev.Error().Str("errors", c.Errors.String()).Msg("request")
	case status >= 500:
		ev.Error().Msg("request")
	case status >= 400:
		ev.Warn().Msg("request")
	default:
		ev.Info().Msg("request")
	}
}

// Recovery turns a panic into a JSON 500 envelope and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header(HeaderRequestID, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// none is attached. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate cuts s to max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
