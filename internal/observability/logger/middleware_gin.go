package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/paybridge/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-Id"
)

// MiddlewareConfig controls request logging.
type MiddlewareConfig struct {
	// Debug adds the raw path, which may carry user ids.
	Debug bool
	// ErrorClassifier maps the last handler error to (type, code) for the log line.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware seeds the request context with correlation ids and writes one
// access line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if strings.TrimSpace(requestID) == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx = obscontext.WithUserID(ctx, c.GetHeader(HeaderUserID))
		ctx = obscontext.WithPlatform(ctx, c.Param("platform"))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		var errType string
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if cfg.Debug {
			fields = append(fields, zap.String("path", c.Request.URL.Path))
		}
		if last := c.Errors.Last(); last != nil && cfg.ErrorClassifier != nil {
			var code string
			errType, code = cfg.ErrorClassifier(last.Err)
			fields = append(fields, zap.String("error_type", errType), zap.String("error_code", code))
		}

		lvl := accessLevel(route, status, errType)
		if ce := FromContext(c.Request.Context()).Check(lvl, "http.request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// accessLevel keeps probes and rejected vendor pushes out of info logs; vendors
// retry bad deliveries on their own schedule.
func accessLevel(route string, status int, errType string) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case strings.HasPrefix(route, "/webhooks/") && status >= http.StatusBadRequest && errType == "validation_error":
		return zapcore.DebugLevel
	case status == http.StatusTooManyRequests:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
