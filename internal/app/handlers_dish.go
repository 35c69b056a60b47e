package app

import (
	"github.com/ak/mealplanner/internal/domain/services"
	"github.com/gin-gonic/gin"
)

// ==================== Dish handlers ====================

func (a *Application) listDishes(c *gin.Context) {
	dishes, err := a.dishService.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, dishes)
}

func (a *Application) getDish(c *gin.Context) {
	dish, err := a.dishService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, dish)
}

func (a *Application) createDish(c *gin.Context) {
	var req services.SaveDishRequest
	if !bindJSON(c, &req) {
		return
	}

	dish, err := a.dishService.Create(c.Request.Context(), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	createdResponse(c, dish)
}

func (a *Application) updateDish(c *gin.Context) {
	var req services.SaveDishRequest
	if !bindJSON(c, &req) {
		return
	}

	dish, err := a.dishService.Update(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, dish)
}

func (a *Application) deleteDish(c *gin.Context) {
	if err := a.dishService.Delete(c.Request.Context(), c.Param("name")); err != nil {
		a.handleError(c, err)
		return
	}
	successResponse(c, gin.H{"deleted": c.Param("name")})
}
