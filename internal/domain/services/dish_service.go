package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/repositories"
	apperrors "github.com/ak/mealplanner/internal/pkg/errors"
	"github.com/ak/mealplanner/internal/pkg/logger"
)

// DishService handles dish catalog business logic
type DishService interface {
	List(ctx context.Context, filter string) ([]models.Dish, error)
	Get(ctx context.Context, name string) (*models.Dish, error)
	Create(ctx context.Context, req SaveDishRequest) (*models.Dish, error)
	Update(ctx context.Context, name string, req SaveDishRequest) (*models.Dish, error)
	Delete(ctx context.Context, name string) error
}

type SaveDishRequest struct {
	Name        string   `json:"name" binding:"required"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
	Recipe      string   `json:"recipe"`
}

type dishService struct {
	mu     sync.Mutex
	repo   repositories.DishRepository
	logger *logger.Logger
}

// NewDishService creates a new dish service
func NewDishService(repo repositories.DishRepository, log *logger.Logger) DishService {
	return &dishService{
		repo:   repo,
		logger: log.WithComponent("dishes"),
	}
}

// cleanList trims entries and drops blanks and case-insensitive duplicates,
// keeping first-seen order.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (r SaveDishRequest) toDish() (models.Dish, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return models.Dish{}, apperrors.MissingField("name")
	}
	return models.Dish{
		Name:        name,
		Tags:        cleanList(r.Tags),
		Ingredients: cleanList(r.Ingredients),
		Recipe:      strings.TrimSpace(r.Recipe),
	}, nil
}

func indexOfDish(dishes []models.Dish, name string) int {
	key := models.DishKey(name)
	for i, d := range dishes {
		if models.DishKey(d.Name) == key {
			return i
		}
	}
	return -1
}

func (s *dishService) load(ctx context.Context) ([]models.Dish, error) {
	dishes, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	return dishes, nil
}

func (s *dishService) List(ctx context.Context, filter string) ([]models.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dishes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Dish, 0, len(dishes))
	for _, d := range dishes {
		if d.Matches(filter) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *dishService) Get(ctx context.Context, name string) (*models.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dishes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfDish(dishes, name)
	if idx < 0 {
		return nil, apperrors.NotFound("dish")
	}
	return &dishes[idx], nil
}

func (s *dishService) Create(ctx context.Context, req SaveDishRequest) (*models.Dish, error) {
	dish, err := req.toDish()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dishes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if indexOfDish(dishes, dish.Name) >= 0 {
		return nil, apperrors.AlreadyExists("dish")
	}

	dishes = append(dishes, dish)
	if err := s.repo.Save(ctx, dishes); err != nil {
		return nil, apperrors.StorageError(err)
	}

	s.logger.WithDish(dish.Name).Info("Dish created")
	return &dish, nil
}

func (s *dishService) Update(ctx context.Context, name string, req SaveDishRequest) (*models.Dish, error) {
	dish, err := req.toDish()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dishes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfDish(dishes, name)
	if idx < 0 {
		return nil, apperrors.NotFound("dish")
	}
	if other := indexOfDish(dishes, dish.Name); other >= 0 && other != idx {
		return nil, apperrors.AlreadyExists("dish")
	}

	dishes[idx] = dish
	if err := s.repo.Save(ctx, dishes); err != nil {
		return nil, apperrors.StorageError(err)
	}

	s.logger.WithDish(dish.Name).Info("Dish updated")
	return &dish, nil
}

// Delete removes a dish from the catalog. Meals already planned with it are
// left as they are.
func (s *dishService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dishes, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOfDish(dishes, name)
	if idx < 0 {
		return apperrors.NotFound("dish")
	}

	removed := dishes[idx].Name
	dishes = append(dishes[:idx], dishes[idx+1:]...)
	if err := s.repo.Save(ctx, dishes); err != nil {
		return apperrors.StorageError(err)
	}

	s.logger.WithDish(removed).Info("Dish deleted")
	return nil
}
