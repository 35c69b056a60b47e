package services

import (
	"sort"
	"time"

	"github.com/ak/mealplanner/internal/domain/models"
)

// LeftoverLookbackDays is how far back a cook event still counts as a source
// of leftovers when planning a leftovers meal by hand.
const LeftoverLookbackDays = 7

// ApplyResult describes what a slot edit did to the schedule.
type ApplyResult struct {
	Slot    models.SlotKey     `json:"slot"`
	Record  *models.MealRecord `json:"record,omitempty"`
	Removed int                `json:"leftovers_removed"`
	Placed  []models.SlotKey   `json:"leftovers_placed"`
	// Unplaced counts requested leftovers that found no free slot within the horizon.
	Unplaced int `json:"leftovers_unplaced"`
}

// LeftoverSource is a recent cook event whose leftovers can be planned.
type LeftoverSource struct {
	DishName   string         `json:"dish_name"`
	CookedDate string         `json:"cooked_date"`
	LeftoverID string         `json:"leftover_id"`
	Slot       models.SlotKey `json:"slot"`
}

// FindChain returns every leftover record correlated with leftoverID, in
// canonical slot order. Entries with malformed dates never match.
func FindChain(schedule *models.Schedule, leftoverID string) []models.ScheduledMeal {
	if leftoverID == "" {
		return nil
	}

	var chain []models.ScheduledMeal
	for _, meal := range schedule.Meals() {
		if meal.Record.IsLeftover() && meal.Record.LeftoverID == leftoverID {
			chain = append(chain, meal)
		}
	}
	return chain
}

// RemoveChain deletes every leftover record correlated with leftoverID and
// returns how many were removed. Calling it again returns 0.
func RemoveChain(schedule *models.Schedule, leftoverID string) int {
	removed := 0
	for _, meal := range FindChain(schedule, leftoverID) {
		if schedule.Clear(meal.Slot) {
			removed++
		}
	}
	return removed
}

// ApplyMeal writes rec into slot, reconciling the leftover chain of the
// record it replaces. Leftovers of a cook event are regenerated from scratch on
// every save, so a changed count or dish never leaves stale records behind.
func ApplyMeal(schedule *models.Schedule, slot models.SlotKey, rec, previous models.MealRecord) ApplyResult {
	result := ApplyResult{Slot: slot, Placed: []models.SlotKey{}}

	if previous.IsCook() && previous.LeftoverID != "" {
		if !rec.IsCook() || rec.LeftoverID != previous.LeftoverID {
			result.Removed += RemoveChain(schedule, previous.LeftoverID)
		}
	}
	if rec.IsCook() && rec.LeftoverID != "" {
		result.Removed += RemoveChain(schedule, rec.LeftoverID)
	}

	schedule.Set(slot, rec)
	if !rec.IsEmpty() {
		stored := rec
		result.Record = &stored
	}

	if rec.IsCook() && rec.LeftoverMeals > 0 {
		result.Placed = PlaceLeftovers(schedule, slot, rec)
		result.Unplaced = rec.LeftoverMeals - len(result.Placed)
	}
	return result
}

// DeleteMeal empties slot and tears down any chain produced by the meal that
// was there.
func DeleteMeal(schedule *models.Schedule, slot models.SlotKey) ApplyResult {
	previous, _ := schedule.Get(slot)
	return ApplyMeal(schedule, slot, models.NoMeal(), previous)
}

// LeftoverSources lists cook events from date back to LeftoverLookbackDays
// days before it, most recent first.
func LeftoverSources(schedule *models.Schedule, date time.Time) []LeftoverSource {
	day := models.NewSlotKey(date, models.MealTypeLunch).Date
	earliest := day.AddDate(0, 0, -LeftoverLookbackDays)

	var sources []LeftoverSource
	for _, meal := range schedule.Meals() {
		if !meal.Record.IsCook() || meal.Record.DishName == "" || meal.Record.LeftoverID == "" {
			continue
		}
		if meal.Slot.Date.Before(earliest) || meal.Slot.Date.After(day) {
			continue
		}
		sources = append(sources, LeftoverSource{
			DishName:   meal.Record.DishName,
			CookedDate: meal.Slot.DateString(),
			LeftoverID: meal.Record.LeftoverID,
			Slot:       meal.Slot,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[j].Slot.Before(sources[i].Slot)
	})
	return sources
}
