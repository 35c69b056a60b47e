package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/repositories"
	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"go.uber.org/zap"
)

// TrackingService handles ingredient tracking business logic
type TrackingService interface {
	List(ctx context.Context) (*models.IngredientTracking, error)
	Prune(ctx context.Context, now time.Time) (int, error)
	Upcoming(ctx context.Context, today time.Time) ([]UpcomingDish, error)
	Track(ctx context.Context, req TrackRequest) (*models.IngredientAcquisition, error)
	SetObtained(ctx context.Context, req SetObtainedRequest) (*models.IngredientAcquisition, error)
}

type TrackRequest struct {
	DishName string `json:"dish_name" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

type SetObtainedRequest struct {
	DishName   string `json:"dish_name" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Ingredient string `json:"ingredient" binding:"required"`
	Obtained   bool   `json:"obtained"`
}

type trackingService struct {
	mu           sync.Mutex
	trackingRepo repositories.TrackingRepository
	scheduleRepo repositories.ScheduleRepository
	dishRepo     repositories.DishRepository
	logger       *logger.Logger
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	trackingRepo repositories.TrackingRepository,
	scheduleRepo repositories.ScheduleRepository,
	dishRepo repositories.DishRepository,
	log *logger.Logger,
) TrackingService {
	return &trackingService{
		trackingRepo: trackingRepo,
		scheduleRepo: scheduleRepo,
		dishRepo:     dishRepo,
		logger:       log.WithComponent("tracking"),
	}
}

func (s *trackingService) load(ctx context.Context) (*models.IngredientTracking, error) {
	tracking, err := s.trackingRepo.Load(ctx)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	return tracking, nil
}

func (s *trackingService) List(ctx context.Context) (*models.IngredientTracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Prune drops acquisition records planned more than TrackingRetentionDays
// before now and returns how many went. Nothing is written when nothing is
// dropped.
func (s *trackingService) Prune(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracking, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	pruned, removed := PruneAcquisitions(tracking, now)
	if removed == 0 {
		s.logger.Debug("No ingredient tracking records to prune")
		return 0, nil
	}
	if err := s.trackingRepo.Save(ctx, pruned); err != nil {
		return 0, apperrors.StorageError(err)
	}

	s.logger.Info("Pruned ingredient tracking",
		zap.Int("removed", removed),
		zap.Int("kept", len(pruned.Acquisitions)),
	)
	return removed, nil
}

func (s *trackingService) Upcoming(ctx context.Context, today time.Time) ([]UpcomingDish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.scheduleRepo.Load(ctx)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	tracking, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	upcoming := UpcomingDishes(schedule, tracking, today)
	if upcoming == nil {
		upcoming = []UpcomingDish{}
	}
	return upcoming, nil
}

// Track starts tracking the catalog ingredients of a dish planned on a date.
// Tracking the same dish and date again adds ingredients new to the catalog
// and keeps the state of the ones already tracked.
func (s *trackingService) Track(ctx context.Context, req TrackRequest) (*models.IngredientAcquisition, error) {
	date := strings.TrimSpace(req.Date)
	if _, err := models.ParseDate(date); err != nil {
		return nil, apperrors.Parse("date", req.Date)
	}

	dishes, err := s.dishRepo.Load(ctx)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	idx := indexOfDish(dishes, req.DishName)
	if idx < 0 {
		return nil, apperrors.NotFound("dish")
	}
	dish := dishes[idx]

	s.mu.Lock()
	defer s.mu.Unlock()

	tracking, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	pos := tracking.Find(dish.Name, date)
	if pos < 0 {
		tracking.Acquisitions = append(tracking.Acquisitions, models.IngredientAcquisition{
			DishName:           dish.Name,
			PlannedCookingDate: date,
			Ingredients:        make(map[string]models.IngredientStatus, len(dish.Ingredients)),
		})
		pos = len(tracking.Acquisitions) - 1
	}
	acq := &tracking.Acquisitions[pos]
	if acq.Ingredients == nil {
		acq.Ingredients = make(map[string]models.IngredientStatus, len(dish.Ingredients))
	}
	for _, ing := range dish.Ingredients {
		if _, ok := acq.Ingredients[ing]; !ok {
			acq.Ingredients[ing] = models.IngredientStatus{}
		}
	}

	if err := s.trackingRepo.Save(ctx, tracking); err != nil {
		return nil, apperrors.StorageError(err)
	}

	s.logger.WithDish(dish.Name).Info("Tracking ingredients",
		zap.String("date", date),
		zap.Int("ingredients", len(acq.Ingredients)),
	)
	result := *acq
	return &result, nil
}

func (s *trackingService) SetObtained(ctx context.Context, req SetObtainedRequest) (*models.IngredientAcquisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracking, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	pos := tracking.Find(req.DishName, strings.TrimSpace(req.Date))
	if pos < 0 {
		return nil, apperrors.NotFound("tracked dish")
	}

	acq := &tracking.Acquisitions[pos]
	if _, ok := acq.Ingredients[req.Ingredient]; !ok {
		return nil, apperrors.NotFound("ingredient")
	}
	acq.Ingredients[req.Ingredient] = models.IngredientStatus{Obtained: req.Obtained}

	if err := s.trackingRepo.Save(ctx, tracking); err != nil {
		return nil, apperrors.StorageError(err)
	}

	s.logger.WithDish(acq.DishName).Debug("Ingredient status changed",
		zap.String("ingredient", req.Ingredient),
		zap.Bool("obtained", req.Obtained),
	)
	result := *acq
	return &result, nil
}
