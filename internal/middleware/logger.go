package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
)

// LoggerKey is the context key for the request-scoped logger.
const LoggerKey = "logger"

// DefaultQuietPaths are probe routes whose successful requests log at debug level.
var DefaultQuietPaths = []string{"/health", "/health/ready"}

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// QuietPaths log successful requests at debug instead of info.
	QuietPaths []string
}

// Logger creates a middleware that logs HTTP requests using structured logging.
// Probe routes in DefaultQuietPaths only show up at debug level unless they fail.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return LoggerWithConfig(log, LoggerConfig{QuietPaths: DefaultQuietPaths})
}

// LoggerWithConfig is Logger with explicit configuration.
func LoggerWithConfig(log *logger.Logger, cfg LoggerConfig) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(cfg.QuietPaths))
	for _, p := range cfg.QuietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         status,
			"duration_ms":    time.Since(start).Milliseconds(),
			"ip":             c.ClientIP(),
			"user_agent":     c.Request.UserAgent(),
			"response_bytes": c.Writer.Size(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if route := c.FullPath(); route != "" {
			fields["route"] = route
		}
		if c.Request.ContentLength > 0 {
			fields["request_bytes"] = c.Request.ContentLength
		}
		if status >= 400 && len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case status == 429:
			requestLogger.Warn("Request rate limited", fields)
		case status >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		default:
			if _, ok := quiet[c.Request.URL.Path]; ok {
				requestLogger.Debug("Request completed", fields)
				return
			}
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(LoggerKey); exists {
		if logger, ok := log.(*logger.Logger); ok {
			return logger
		}
	}
	return nil
}
