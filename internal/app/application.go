package app

import (
	"net/http"
	"time"

	"github.com/ak/mealplanner/internal/app/middleware"
	"github.com/ak/mealplanner/internal/domain/services"
	"github.com/ak/mealplanner/internal/infrastructure/config"
	"github.com/ak/mealplanner/internal/infrastructure/repositories"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Application holds all application dependencies and services
type Application struct {
	config          *config.Config
	logger          *logger.Logger
	repos           *repositories.Provider
	dishService     services.DishService
	scheduleService services.ScheduleService
	trackingService services.TrackingService
	router          *gin.Engine
	now             func() time.Time
}

// New creates a new Application instance
func New(cfg *config.Config, log *logger.Logger, repos *repositories.Provider) (*Application, error) {
	app := &Application{
		config:          cfg,
		logger:          log,
		repos:           repos,
		dishService:     services.NewDishService(repos.Dish, log),
		scheduleService: services.NewScheduleService(repos.Schedule, log),
		trackingService: services.NewTrackingService(repos.Tracking, repos.Schedule, repos.Dish, log),
		now:             time.Now,
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app.router = gin.New()

	httpLog := log.WithComponent("http")
	app.router.Use(middleware.RequestID())
	app.router.Use(middleware.RecoveryMiddleware(httpLog.Logger))
	app.router.Use(middleware.LoggerMiddleware(httpLog.Logger))
	app.router.Use(app.corsMiddleware())

	app.setupRoutes()

	return app, nil
}

// Router returns the HTTP handler
func (a *Application) Router() http.Handler {
	return a.router
}

// TrackingService exposes ingredient tracking for startup maintenance
func (a *Application) TrackingService() services.TrackingService {
	return a.trackingService
}

// setupRoutes configures all application routes
func (a *Application) setupRoutes() {
	a.router.GET("/health", a.healthCheck)
	a.router.GET("/ready", a.readinessCheck)

	v1 := a.router.Group("/api/v1")
	if a.config.AuthEnabled() {
		v1.Use(middleware.JWTMiddleware(middleware.JWTConfig{
			Secret:         a.config.JWT.Secret,
			Issuer:         a.config.JWT.Issuer,
			AccessTokenTTL: a.config.JWT.AccessTokenTTL,
		}))
	}
	{
		v1.GET("/info", a.apiInfo)

		dishes := v1.Group("/dishes")
		{
			dishes.GET("", a.listDishes)
			dishes.POST("", a.createDish)
			dishes.GET("/:name", a.getDish)
			dishes.PUT("/:name", a.updateDish)
			dishes.DELETE("/:name", a.deleteDish)
		}

		schedule := v1.Group("/schedule")
		{
			schedule.GET("/week", a.getWeek)
			schedule.GET("/:date/leftover-sources", a.getLeftoverSources)
			schedule.GET("/:date/:meal", a.getMeal)
			schedule.PUT("/:date/:meal", a.saveMeal)
			schedule.DELETE("/:date/:meal", a.deleteMeal)
			schedule.GET("/:date/:meal/next-slots", a.getNextSlots)
		}

		leftovers := v1.Group("/leftovers")
		{
			leftovers.GET("/:id", a.getLeftoverChain)
			leftovers.DELETE("/:id", a.deleteLeftoverChain)
		}

		tracking := v1.Group("/tracking")
		{
			tracking.GET("", a.listTracking)
			tracking.POST("", a.trackDish)
			tracking.GET("/upcoming", a.getUpcoming)
			tracking.POST("/prune", a.pruneTracking)
			tracking.PUT("/obtained", a.setObtained)
		}
	}
}

// Middleware

func (a *Application) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
