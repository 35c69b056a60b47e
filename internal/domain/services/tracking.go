package services

import (
	"time"

	"github.com/ak/mealplanner/internal/domain/models"
)

// TrackingRetentionDays is how long acquisition records are kept after their
// planned cooking date.
const TrackingRetentionDays = 30

// UpcomingDays is the window, starting today, checked for cook events whose
// ingredients still need buying.
const UpcomingDays = 2

// UpcomingDish is a cook event in the upcoming window with its ingredient state.
type UpcomingDish struct {
	DishName string          `json:"dish_name"`
	Date     string          `json:"date"`
	MealType models.MealType `json:"meal_type"`
	Tracked  bool            `json:"tracked"`
	Missing  []string        `json:"missing"`
}

// Ready reports whether every ingredient of a tracked dish has been obtained.
func (u UpcomingDish) Ready() bool {
	return u.Tracked && len(u.Missing) == 0
}

// PruneAcquisitions drops records planned more than TrackingRetentionDays
// before now, compared on whole dates. Records whose date does not parse are
// kept. It returns the surviving document and the number of records dropped.
func PruneAcquisitions(tracking *models.IngredientTracking, now time.Time) (*models.IngredientTracking, int) {
	if tracking == nil {
		return models.NewIngredientTracking(), 0
	}

	y, m, d := now.Date()
	cutoff := time.Date(y, m, d-TrackingRetentionDays, 0, 0, 0, 0, time.UTC)

	kept := make([]models.IngredientAcquisition, 0, len(tracking.Acquisitions))
	for _, a := range tracking.Acquisitions {
		planned, err := models.ParseDate(a.PlannedCookingDate)
		if err != nil || !planned.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	return &models.IngredientTracking{Acquisitions: kept}, len(tracking.Acquisitions) - len(kept)
}

// UpcomingDishes lists cook events from today through the end of the upcoming
// window that still need ingredients: untracked ones and tracked ones with
// anything not yet obtained.
func UpcomingDishes(schedule *models.Schedule, tracking *models.IngredientTracking, today time.Time) []UpcomingDish {
	if tracking == nil {
		tracking = models.NewIngredientTracking()
	}

	var out []UpcomingDish
	day := models.NewSlotKey(today, models.MealTypeLunch).Date
	for i := 0; i < UpcomingDays; i++ {
		date := day.AddDate(0, 0, i)
		for _, mt := range models.MealTypes {
			rec, ok := schedule.Get(models.NewSlotKey(date, mt))
			if !ok || !rec.IsCook() || rec.DishName == "" {
				continue
			}

			item := UpcomingDish{
				DishName: rec.DishName,
				Date:     models.FormatDate(date),
				MealType: mt,
				Missing:  []string{},
			}
			if idx := tracking.Find(rec.DishName, item.Date); idx >= 0 {
				item.Tracked = true
				if missing := tracking.Acquisitions[idx].Missing(); missing != nil {
					item.Missing = missing
				}
			}
			if item.Ready() {
				continue
			}
			out = append(out, item)
		}
	}
	return out
}
