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

// MaxLeftoverMeals caps the leftovers requested for a single cook event.
const MaxLeftoverMeals = 10

// ScheduleService handles schedule business logic
type ScheduleService interface {
	GetMeal(ctx context.Context, date, mealType string) (*models.ScheduledMeal, error)
	SaveMeal(ctx context.Context, date, mealType string, req SaveMealRequest) (*ApplyResult, error)
	DeleteMeal(ctx context.Context, date, mealType string) (*ApplyResult, error)
	Week(ctx context.Context, start string) (*WeekView, error)

	// Leftovers
	NextSlots(ctx context.Context, date, mealType string, count int) ([]models.SlotKey, error)
	Chain(ctx context.Context, leftoverID string) ([]models.ScheduledMeal, error)
	RemoveChain(ctx context.Context, leftoverID string) (int, error)
	LeftoverSources(ctx context.Context, date string) ([]LeftoverSource, error)
}

// SaveMealRequest is the edit of a single slot. Which fields are read depends
// on Type, mirroring models.MealRecord.
type SaveMealRequest struct {
	Type          models.MealKind `json:"type" binding:"required"`
	DishName      string          `json:"dish_name"`
	LeftoverMeals int             `json:"leftover_meals"`
	Description   string          `json:"description"`
	LeftoverID    string          `json:"leftover_id"`
	CookedDate    string          `json:"cooked_date"`
}

// WeekView is a Monday-based week of the schedule.
type WeekView struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Days  []DayPlan `json:"days"`
}

// DayPlan holds the two slots of one day; nil means nothing planned.
type DayPlan struct {
	Date    string             `json:"date"`
	Weekday string             `json:"weekday"`
	Lunch   *models.MealRecord `json:"lunch"`
	Dinner  *models.MealRecord `json:"dinner"`
}

type scheduleService struct {
	mu     sync.Mutex
	repo   repositories.ScheduleRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewScheduleService creates a new schedule service
func NewScheduleService(repo repositories.ScheduleRepository, log *logger.Logger) ScheduleService {
	return &scheduleService{
		repo:   repo,
		logger: log.WithComponent("schedule"),
		now:    time.Now,
	}
}

func parseSlot(date, mealType string) (models.SlotKey, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return models.SlotKey{}, apperrors.Parse("date", date)
	}
	mt, err := models.ParseMealType(mealType)
	if err != nil {
		return models.SlotKey{}, apperrors.Parse("meal type", mealType)
	}
	return models.NewSlotKey(d, mt), nil
}

func (s *scheduleService) load(ctx context.Context) (*models.Schedule, error) {
	schedule, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	return schedule, nil
}

func (s *scheduleService) save(ctx context.Context, schedule *models.Schedule) error {
	if err := s.repo.Save(ctx, schedule); err != nil {
		return apperrors.StorageError(err)
	}
	return nil
}

func (s *scheduleService) GetMeal(ctx context.Context, date, mealType string) (*models.ScheduledMeal, error) {
	slot, err := parseSlot(date, mealType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := schedule.Get(slot)
	if !ok {
		return nil, apperrors.NotFound("meal")
	}
	return &models.ScheduledMeal{Slot: slot, Record: rec}, nil
}

// buildRecord validates req against the current schedule and turns it into
// the record to store.
func buildRecord(schedule *models.Schedule, slot models.SlotKey, req SaveMealRequest) (models.MealRecord, error) {
	kind := models.MealKind(strings.ToLower(strings.TrimSpace(string(req.Type))))
	switch kind {
	case models.MealKindCook:
		dish := strings.TrimSpace(req.DishName)
		if dish == "" {
			return models.MealRecord{}, apperrors.MissingField("dish_name")
		}
		leftovers := min(max(req.LeftoverMeals, 0), MaxLeftoverMeals)
		return models.CookMeal(dish, leftovers, slot.DateString()), nil

	case models.MealKindBought, models.MealKindFrozen:
		desc := strings.TrimSpace(req.Description)
		if desc == "" {
			return models.MealRecord{}, apperrors.MissingField("description")
		}
		if kind == models.MealKindBought {
			return models.BoughtMeal(desc), nil
		}
		return models.FrozenMeal(desc), nil

	case models.MealKindLeftovers:
		id := strings.TrimSpace(req.LeftoverID)
		if id == "" {
			return models.MealRecord{}, apperrors.MissingField("leftover_id")
		}
		dish, cooked := strings.TrimSpace(req.DishName), strings.TrimSpace(req.CookedDate)
		if dish == "" || cooked == "" {
			for _, m := range schedule.Meals() {
				if m.Record.IsCook() && m.Record.LeftoverID == id {
					if dish == "" {
						dish = m.Record.DishName
					}
					if cooked == "" {
						cooked = m.Slot.DateString()
					}
					break
				}
			}
		}
		if dish == "" {
			return models.MealRecord{}, apperrors.MissingField("dish_name")
		}
		if cooked == "" {
			return models.MealRecord{}, apperrors.MissingField("cooked_date")
		}
		if _, err := models.ParseDate(cooked); err != nil {
			return models.MealRecord{}, apperrors.Parse("cooked date", cooked)
		}
		return models.LeftoverMeal(dish, cooked, id), nil

	case models.MealKindNone:
		return models.NoMeal(), nil
	}
	return models.MealRecord{}, apperrors.Validation("unknown meal type " + string(req.Type)).
		WithDetails("expected one of cook, bought, frozen, leftovers, none")
}

func (s *scheduleService) SaveMeal(ctx context.Context, date, mealType string, req SaveMealRequest) (*ApplyResult, error) {
	slot, err := parseSlot(date, mealType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := buildRecord(schedule, slot, req)
	if err != nil {
		return nil, err
	}

	previous, _ := schedule.Get(slot)
	result := ApplyMeal(schedule, slot, rec, previous)

	if err := s.save(ctx, schedule); err != nil {
		return nil, err
	}

	log := s.logger.WithSlot(slot.DateString(), string(slot.MealType))
	log.Info("Meal saved",
		zap.String("type", string(rec.Kind)),
		zap.Int("leftovers_removed", result.Removed),
		zap.Int("leftovers_placed", len(result.Placed)),
	)
	if result.Unplaced > 0 {
		log.WithLeftover(rec.LeftoverID).Warn("Not enough free slots for leftovers",
			zap.Int("requested", rec.LeftoverMeals),
			zap.Int("unplaced", result.Unplaced),
		)
	}
	return &result, nil
}

func (s *scheduleService) DeleteMeal(ctx context.Context, date, mealType string) (*ApplyResult, error) {
	slot, err := parseSlot(date, mealType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	result := DeleteMeal(schedule, slot)
	if err := s.save(ctx, schedule); err != nil {
		return nil, err
	}

	s.logger.WithSlot(slot.DateString(), string(slot.MealType)).Info("Meal deleted",
		zap.Int("leftovers_removed", result.Removed))
	return &result, nil
}

// mondayOf returns the Monday on or before d.
func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func (s *scheduleService) Week(ctx context.Context, start string) (*WeekView, error) {
	var day time.Time
	if strings.TrimSpace(start) == "" {
		day = models.NewSlotKey(s.now(), models.MealTypeLunch).Date
	} else {
		d, err := models.ParseDate(start)
		if err != nil {
			return nil, apperrors.Parse("date", start)
		}
		day = d
	}
	monday := mondayOf(day)

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	view := &WeekView{
		Start: models.FormatDate(monday),
		End:   models.FormatDate(monday.AddDate(0, 0, 6)),
		Days:  make([]DayPlan, 0, 7),
	}
	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i)
		plan := DayPlan{Date: models.FormatDate(date), Weekday: date.Weekday().String()}
		if rec, ok := schedule.Get(models.NewSlotKey(date, models.MealTypeLunch)); ok {
			plan.Lunch = &rec
		}
		if rec, ok := schedule.Get(models.NewSlotKey(date, models.MealTypeDinner)); ok {
			plan.Dinner = &rec
		}
		view.Days = append(view.Days, plan)
	}
	return view, nil
}

func (s *scheduleService) NextSlots(ctx context.Context, date, mealType string, count int) ([]models.SlotKey, error) {
	slot, err := parseSlot(date, mealType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	slots := NextSlots(schedule, slot, count)
	if slots == nil {
		slots = []models.SlotKey{}
	}
	return slots, nil
}

func (s *scheduleService) Chain(ctx context.Context, leftoverID string) ([]models.ScheduledMeal, error) {
	if strings.TrimSpace(leftoverID) == "" {
		return nil, apperrors.MissingField("leftover_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	chain := FindChain(schedule, leftoverID)
	if chain == nil {
		chain = []models.ScheduledMeal{}
	}
	return chain, nil
}

func (s *scheduleService) RemoveChain(ctx context.Context, leftoverID string) (int, error) {
	if strings.TrimSpace(leftoverID) == "" {
		return 0, apperrors.MissingField("leftover_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	removed := RemoveChain(schedule, leftoverID)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(ctx, schedule); err != nil {
		return 0, err
	}

	s.logger.WithLeftover(leftoverID).Info("Leftover chain removed", zap.Int("removed", removed))
	return removed, nil
}

func (s *scheduleService) LeftoverSources(ctx context.Context, date string) ([]LeftoverSource, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, apperrors.Parse("date", date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sources := LeftoverSources(schedule, day)
	if sources == nil {
		sources = []LeftoverSource{}
	}
	return sources, nil
}
