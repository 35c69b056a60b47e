package services

import (
	"github.com/ak/mealplanner/internal/domain/models"
)

// PlacementHorizonDays bounds the forward scan for free slots. Slots on the
// horizon day itself are still eligible.
const PlacementHorizonDays = 14

// NextSlots returns up to count free slots after start, in canonical order.
// The scan stops at the horizon, so fewer than count slots may come back.
func NextSlots(schedule *models.Schedule, start models.SlotKey, count int) []models.SlotKey {
	if count <= 0 {
		return nil
	}

	start = models.NewSlotKey(start.Date, start.MealType)
	horizon := start.Date.AddDate(0, 0, PlacementHorizonDays)

	slots := make([]models.SlotKey, 0, min(count, 2*(PlacementHorizonDays+1)))
	for slot := start.Next(); !slot.Date.After(horizon) && len(slots) < count; slot = slot.Next() {
		if schedule.IsFree(slot) {
			slots = append(slots, slot)
		}
	}
	return slots
}

// PlaceLeftovers fills the free slots following the cook event at slot with
// leftover records of cook. It never overwrites a planned meal and returns the
// slots it filled.
func PlaceLeftovers(schedule *models.Schedule, slot models.SlotKey, cook models.MealRecord) []models.SlotKey {
	if !cook.IsCook() || cook.LeftoverMeals <= 0 {
		return nil
	}

	slots := NextSlots(schedule, slot, cook.LeftoverMeals)
	cookedDate := slot.DateString()
	for _, s := range slots {
		schedule.Set(s, models.LeftoverMeal(cook.DishName, cookedDate, cook.LeftoverID))
	}
	return slots
}
