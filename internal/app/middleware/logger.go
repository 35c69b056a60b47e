package middleware

import (
	"net/http"
	"time"

	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// healthPaths are served without request logs.
var healthPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// routeParams are copied from the matched route into log fields.
var routeParams = []string{"date", "meal", "id", "name"}

// requestFields describes the matched route of c: its template, the slot or
// chain it addresses and the caller.
func requestFields(c *gin.Context) []zap.Field {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("route", route),
	}
	for _, p := range routeParams {
		if v := c.Param(p); v != "" {
			fields = append(fields, zap.String(p, v))
		}
	}
	if requestID := GetRequestID(c); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if subject := GetSubject(c); subject != "" {
		fields = append(fields, zap.String("subject", subject))
	}
	if claims := GetClaims(c); claims != nil && claims.Household != "" {
		fields = append(fields, zap.String("household", claims.Household))
	}
	return fields
}

// LoggerMiddleware logs every API request once it has been handled
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if healthPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := append(requestFields(c),
			zap.Int("status", status),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("body_size", c.Writer.Size()),
		)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

// RecoveryMiddleware turns a handler panic into a 500 API error
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked",
					append(requestFields(c), zap.Any("panic", rec))...,
				)

				apiErr := apperrors.Internal("An internal error occurred").
					WithDetails(gin.H{"request_id": GetRequestID(c)})
				c.AbortWithStatusJSON(apiErr.HTTPStatus, apperrors.NewErrorResponse(apiErr))
			}
		}()

		c.Next()
	}
}
