// Package system holds process-wide helpers: logger construction and
// request-scoped logging for the HTTP layer.
package system

import (
	stdlog "log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReqLoggerKey is the context key used to store the request-scoped logger in
// gin context.
const ReqLoggerKey = "reqLogger"

// SetupLogger builds the process logger: production config by default,
// development config in debug mode, RFC3339 UTC timestamps, no automatic
// stacktraces below fatal.
func SetupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}

// RequestLogger returns middleware that attaches a request-scoped sugared
// logger carrying a generated request id.
func RequestLogger(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := base.With("requestId", uuid.NewString())
		c.Set(ReqLoggerKey, reqLogger)
		c.Next()
	}
}

// GetReqLogger returns the request-scoped sugared logger from gin.Context if
// present, otherwise the provided fallback.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}
