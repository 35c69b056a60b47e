package repositories

import (
	"context"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/repositories"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/spf13/afero"
)

type fileDishRepository struct {
	file jsonFile
}

// NewFileDishRepository stores the dish catalog as a JSON array at path
func NewFileDishRepository(fsys afero.Fs, path string, log *logger.Logger) repositories.DishRepository {
	return &fileDishRepository{file: newJSONFile(fsys, path, log)}
}

func (r *fileDishRepository) Load(ctx context.Context) ([]models.Dish, error) {
	dishes, err := loadJSON(r.file, func() []models.Dish { return []models.Dish{} })
	if err != nil {
		return nil, err
	}
	if dishes == nil {
		dishes = []models.Dish{}
	}
	return dishes, nil
}

func (r *fileDishRepository) Save(ctx context.Context, dishes []models.Dish) error {
	if dishes == nil {
		dishes = []models.Dish{}
	}
	return r.file.save(dishes)
}

type fileScheduleRepository struct {
	file jsonFile
}

// NewFileScheduleRepository stores the schedule as {"schedule": {...}} at path
func NewFileScheduleRepository(fsys afero.Fs, path string, log *logger.Logger) repositories.ScheduleRepository {
	return &fileScheduleRepository{file: newJSONFile(fsys, path, log)}
}

func (r *fileScheduleRepository) Load(ctx context.Context) (*models.Schedule, error) {
	schedule, err := loadJSON(r.file, models.NewSchedule)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return models.NewSchedule(), nil
	}
	schedule.Normalize()
	return schedule, nil
}

func (r *fileScheduleRepository) Save(ctx context.Context, schedule *models.Schedule) error {
	if schedule == nil {
		schedule = models.NewSchedule()
	}
	schedule.Normalize()
	return r.file.save(schedule)
}

type fileTrackingRepository struct {
	file jsonFile
}

// NewFileTrackingRepository stores ingredient tracking as
// {"ingredient_acquisitions": [...]} at path
func NewFileTrackingRepository(fsys afero.Fs, path string, log *logger.Logger) repositories.TrackingRepository {
	return &fileTrackingRepository{file: newJSONFile(fsys, path, log)}
}

func (r *fileTrackingRepository) Load(ctx context.Context) (*models.IngredientTracking, error) {
	tracking, err := loadJSON(r.file, models.NewIngredientTracking)
	if err != nil {
		return nil, err
	}
	if tracking == nil {
		return models.NewIngredientTracking(), nil
	}
	if tracking.Acquisitions == nil {
		tracking.Acquisitions = []models.IngredientAcquisition{}
	}
	return tracking, nil
}

func (r *fileTrackingRepository) Save(ctx context.Context, tracking *models.IngredientTracking) error {
	if tracking == nil {
		tracking = models.NewIngredientTracking()
	}
	if tracking.Acquisitions == nil {
		tracking.Acquisitions = []models.IngredientAcquisition{}
	}
	return r.file.save(tracking)
}
