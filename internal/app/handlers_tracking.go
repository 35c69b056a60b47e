package app

import (
	"time"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/services"
	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/gin-gonic/gin"
)

// ==================== Tracking handlers ====================

// dayParam reads an optional YYYY-MM-DD query parameter, defaulting to today.
func (a *Application) dayParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return a.now(), true
	}
	day, err := models.ParseDate(raw)
	if err != nil {
		a.handleError(c, apperrors.Parse("date", raw))
		return time.Time{}, false
	}
	return day, true
}

func (a *Application) listTracking(c *gin.Context) {
	tracking, err := a.trackingService.List(c.Request.Context())
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, tracking)
}

func (a *Application) getUpcoming(c *gin.Context) {
	today, ok := a.dayParam(c, "today")
	if !ok {
		return
	}

	upcoming, err := a.trackingService.Upcoming(c.Request.Context(), today)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, upcoming)
}

func (a *Application) pruneTracking(c *gin.Context) {
	now, ok := a.dayParam(c, "now")
	if !ok {
		return
	}

	removed, err := a.trackingService.Prune(c.Request.Context(), now)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, gin.H{"removed": removed})
}

func (a *Application) trackDish(c *gin.Context) {
	var req services.TrackRequest
	if !bindJSON(c, &req) {
		return
	}

	acq, err := a.trackingService.Track(c.Request.Context(), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	createdResponse(c, acq)
}

func (a *Application) setObtained(c *gin.Context) {
	var req services.SetObtainedRequest
	if !bindJSON(c, &req) {
		return
	}

	acq, err := a.trackingService.SetObtained(c.Request.Context(), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, acq)
}
