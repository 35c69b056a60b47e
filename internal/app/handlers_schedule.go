package app

import (
	"strconv"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/services"
	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/gin-gonic/gin"
)

// ==================== Schedule handlers ====================

func (a *Application) getWeek(c *gin.Context) {
	start := c.Query("start")
	if start == "" {
		start = models.FormatDate(a.now())
	}

	week, err := a.scheduleService.Week(c.Request.Context(), start)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, week)
}

func (a *Application) getMeal(c *gin.Context) {
	meal, err := a.scheduleService.GetMeal(c.Request.Context(), c.Param("date"), c.Param("meal"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, meal)
}

func (a *Application) saveMeal(c *gin.Context) {
	var req services.SaveMealRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := a.scheduleService.SaveMeal(c.Request.Context(), c.Param("date"), c.Param("meal"), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, result)
}

func (a *Application) deleteMeal(c *gin.Context) {
	result, err := a.scheduleService.DeleteMeal(c.Request.Context(), c.Param("date"), c.Param("meal"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, result)
}

func (a *Application) getNextSlots(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "1"))
	if err != nil {
		a.handleError(c, apperrors.InvalidInput("count must be an integer"))
		return
	}

	slots, err := a.scheduleService.NextSlots(c.Request.Context(), c.Param("date"), c.Param("meal"), count)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, slots)
}

func (a *Application) getLeftoverSources(c *gin.Context) {
	sources, err := a.scheduleService.LeftoverSources(c.Request.Context(), c.Param("date"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, sources)
}

// ==================== Leftover handlers ====================

func (a *Application) getLeftoverChain(c *gin.Context) {
	chain, err := a.scheduleService.Chain(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, chain)
}

func (a *Application) deleteLeftoverChain(c *gin.Context) {
	removed, err := a.scheduleService.RemoveChain(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, gin.H{"leftover_id": c.Param("id"), "removed": removed})
}
