package repositories

import (
	"context"

	"github.com/ak/mealplanner/internal/domain/models"
)

// Each store is a single document loaded and saved whole. A missing or
// unreadable document loads as its empty default instead of failing.

// DishRepository defines persistence of the dish catalog
type DishRepository interface {
	Load(ctx context.Context) ([]models.Dish, error)
	Save(ctx context.Context, dishes []models.Dish) error
}

// ScheduleRepository defines persistence of the meal schedule
type ScheduleRepository interface {
	Load(ctx context.Context) (*models.Schedule, error)
	Save(ctx context.Context, schedule *models.Schedule) error
}

// TrackingRepository defines persistence of ingredient tracking
type TrackingRepository interface {
	Load(ctx context.Context) (*models.IngredientTracking, error)
	Save(ctx context.Context, tracking *models.IngredientTracking) error
}

// HealthChecker is implemented by backends that can report readiness
type HealthChecker interface {
	Health(ctx context.Context) error
}
