package app

import (
	"net/http"
	"time"

	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by /api/v1/info and set at build time
var Version = "dev"

// APIResponse is the standard API response format
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func createdResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleError writes err as an API error. Errors that are not *APIError are
// logged and reported as internal errors.
func (a *Application) handleError(c *gin.Context, err error) {
	apiErr, ok := apperrors.As(err)
	if !ok {
		a.logger.Error("Unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		errorResponse(c, http.StatusInternalServerError, string(apperrors.ErrInternal), "An internal error occurred")
		return
	}

	status := apiErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("Request failed", zap.Error(err), zap.Any("details", apiErr.Details))
		_ = c.Error(err)
	}

	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    string(apiErr.Code),
			Message: apiErr.Message,
			Details: clientDetails(apiErr),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// clientDetails hides backend error text behind storage failures.
func clientDetails(err *apperrors.APIError) any {
	if err.Code == apperrors.ErrStorage {
		return nil
	}
	return err.Details
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		apiErr := apperrors.InvalidInput(err.Error())
		errorResponse(c, apiErr.HTTPStatus, string(apiErr.Code), apiErr.Message)
		return false
	}
	return true
}

// Health and info endpoints

func (a *Application) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	if err := a.repos.Health(c.Request.Context()); err != nil {
		a.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"reason":    "storage unavailable",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Application) apiInfo(c *gin.Context) {
	successResponse(c, gin.H{
		"name":        a.config.App.Name,
		"version":     Version,
		"description": "Household meal planner with leftover tracking",
		"storage":     a.config.Storage.Driver,
	})
}
