package middleware

import (
	"time"

	"expense-tracker/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request.
func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
		zap.String("client_ip", c.ClientIP()),
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}

	switch {
	case c.Writer.Status() >= 500:
		logger.Get().Error("request", fields...)
	case c.Writer.Status() >= 400:
		logger.Get().Warn("request", fields...)
	default:
		logger.Get().Info("request", fields...)
	}
}
