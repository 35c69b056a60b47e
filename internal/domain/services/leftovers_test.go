package services

import (
	"testing"
	"time"

	"github.com/ak/mealplanner/internal/domain/models"
)

func slot(t *testing.T, date string, mt models.MealType) models.SlotKey {
	t.Helper()
	k, err := models.ParseSlotKey(date, string(mt))
	if err != nil {
		t.Fatalf("ParseSlotKey(%q, %q): %v", date, mt, err)
	}
	return k
}

func assertSlots(t *testing.T, got []models.SlotKey, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func chainSlots(schedule *models.Schedule, id string) []models.SlotKey {
	var out []models.SlotKey
	for _, m := range FindChain(schedule, id) {
		out = append(out, m.Slot)
	}
	return out
}

func TestApplyMealPlacesLeftovers(t *testing.T) {
	s := models.NewSchedule()
	lunch := slot(t, "2024-01-01", models.MealTypeLunch)
	cook := models.CookMeal("Lasagna", 3, "2024-01-01")

	res := ApplyMeal(s, lunch, cook, models.MealRecord{})

	assertSlots(t, res.Placed, "2024-01-01/dinner", "2024-01-02/lunch", "2024-01-02/dinner")
	if res.Unplaced != 0 || res.Removed != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	for _, k := range res.Placed {
		rec, ok := s.Get(k)
		if !ok || !rec.IsLeftover() {
			t.Fatalf("%s: expected leftovers, got %+v", k, rec)
		}
		if rec.LeftoverID != "lasagna-2024-01-01" || rec.CookedDate != "2024-01-01" || rec.DishName != "Lasagna" {
			t.Errorf("%s: wrong leftover record %+v", k, rec)
		}
	}
}

func TestApplyMealSkipsOccupiedSlots(t *testing.T) {
	s := models.NewSchedule()
	s.Set(slot(t, "2024-01-01", models.MealTypeDinner), models.BoughtMeal("Pizza"))

	res := ApplyMeal(s, slot(t, "2024-01-01", models.MealTypeLunch), models.CookMeal("Stew", 2, "2024-01-01"), models.MealRecord{})

	assertSlots(t, res.Placed, "2024-01-02/lunch", "2024-01-02/dinner")
	rec, _ := s.Get(slot(t, "2024-01-01", models.MealTypeDinner))
	if rec.Kind != models.MealKindBought {
		t.Error("placement overwrote a planned meal")
	}
}

func TestApplyMealRegeneratesChainOnSameDish(t *testing.T) {
	s := models.NewSchedule()
	lunch := slot(t, "2024-01-01", models.MealTypeLunch)
	first := models.CookMeal("Lasagna", 3, "2024-01-01")
	ApplyMeal(s, lunch, first, models.MealRecord{})

	res := ApplyMeal(s, lunch, models.CookMeal("Lasagna", 1, "2024-01-01"), first)

	if res.Removed != 3 {
		t.Errorf("Removed = %d, want 3", res.Removed)
	}
	assertSlots(t, chainSlots(s, "lasagna-2024-01-01"), "2024-01-01/dinner")
	if !s.IsFree(slot(t, "2024-01-02", models.MealTypeLunch)) || !s.IsFree(slot(t, "2024-01-02", models.MealTypeDinner)) {
		t.Error("stale leftovers left behind")
	}
}

func TestApplyMealRetypeRemovesChain(t *testing.T) {
	s := models.NewSchedule()
	lunch := slot(t, "2024-01-01", models.MealTypeLunch)
	cook := models.CookMeal("Lasagna", 3, "2024-01-01")
	ApplyMeal(s, lunch, cook, models.MealRecord{})

	res := ApplyMeal(s, lunch, models.BoughtMeal("Takeaway"), cook)

	if res.Removed != 3 {
		t.Errorf("Removed = %d, want 3", res.Removed)
	}
	if s.Len() != 1 {
		t.Errorf("expected only the bought meal, got %d records", s.Len())
	}
	if len(FindChain(s, cook.LeftoverID)) != 0 {
		t.Error("chain survived retype")
	}
}

func TestApplyMealRenamedDishSwapsChain(t *testing.T) {
	s := models.NewSchedule()
	lunch := slot(t, "2024-01-01", models.MealTypeLunch)
	old := models.CookMeal("Lasagna", 2, "2024-01-01")
	ApplyMeal(s, lunch, old, models.MealRecord{})

	ApplyMeal(s, lunch, models.CookMeal("Chili", 2, "2024-01-01"), old)

	if len(FindChain(s, old.LeftoverID)) != 0 {
		t.Error("old chain survived rename")
	}
	assertSlots(t, chainSlots(s, "chili-2024-01-01"), "2024-01-01/dinner", "2024-01-02/lunch")
}

func TestRemoveChainIdempotent(t *testing.T) {
	s := models.NewSchedule()
	ApplyMeal(s, slot(t, "2024-01-01", models.MealTypeLunch), models.CookMeal("Soup", 2, "2024-01-01"), models.MealRecord{})

	if n := RemoveChain(s, "soup-2024-01-01"); n != 2 {
		t.Errorf("first RemoveChain = %d, want 2", n)
	}
	if n := RemoveChain(s, "soup-2024-01-01"); n != 0 {
		t.Errorf("second RemoveChain = %d, want 0", n)
	}
	if s.Len() != 1 {
		t.Errorf("cook record should remain, got %d records", s.Len())
	}
}

func TestRemoveChainIgnoresMalformedDates(t *testing.T) {
	s := models.NewSchedule()
	s.Days["garbage"] = map[models.MealType]models.MealRecord{
		models.MealTypeLunch: models.LeftoverMeal("Soup", "2024-01-01", "soup-2024-01-01"),
	}
	if n := RemoveChain(s, "soup-2024-01-01"); n != 0 {
		t.Errorf("RemoveChain = %d, want 0", n)
	}
	if _, ok := s.Days["garbage"]; !ok {
		t.Error("malformed entry should be left alone")
	}
}

func TestDeleteMeal(t *testing.T) {
	s := models.NewSchedule()
	lunch := slot(t, "2024-01-01", models.MealTypeLunch)
	ApplyMeal(s, lunch, models.CookMeal("Curry", 2, "2024-01-01"), models.MealRecord{})

	res := DeleteMeal(s, lunch)
	if res.Removed != 2 || res.Record != nil {
		t.Errorf("unexpected result %+v", res)
	}
	if s.Len() != 0 {
		t.Errorf("schedule should be empty, has %d records", s.Len())
	}

	res = DeleteMeal(s, lunch)
	if res.Removed != 0 {
		t.Errorf("deleting an empty slot removed %d", res.Removed)
	}
}

func TestApplyMealZeroLeftovers(t *testing.T) {
	s := models.NewSchedule()
	res := ApplyMeal(s, slot(t, "2024-01-01", models.MealTypeDinner), models.CookMeal("Salad", 0, "2024-01-01"), models.MealRecord{})
	if len(res.Placed) != 0 || s.Len() != 1 {
		t.Errorf("expected only the cook record, result %+v", res)
	}
}

func TestLeftoverSources(t *testing.T) {
	s := models.NewSchedule()
	s.Set(slot(t, "2023-12-31", models.MealTypeDinner), models.CookMeal("Old", 0, "2023-12-31"))
	s.Set(slot(t, "2024-01-03", models.MealTypeLunch), models.CookMeal("Soup", 1, "2024-01-03"))
	s.Set(slot(t, "2024-01-08", models.MealTypeDinner), models.CookMeal("Stew", 1, "2024-01-08"))
	s.Set(slot(t, "2024-01-09", models.MealTypeLunch), models.CookMeal("Later", 1, "2024-01-09"))
	s.Set(slot(t, "2024-01-05", models.MealTypeLunch), models.BoughtMeal("Pizza"))

	day, _ := models.ParseDate("2024-01-08")
	got := LeftoverSources(s, day)

	if len(got) != 2 {
		t.Fatalf("got %d sources: %+v", len(got), got)
	}
	if got[0].DishName != "Stew" || got[1].DishName != "Soup" {
		t.Errorf("sources out of order: %+v", got)
	}
	if got[1].LeftoverID != "soup-2024-01-03" || got[1].CookedDate != "2024-01-03" {
		t.Errorf("wrong source %+v", got[1])
	}
}

func TestLeftoverSourcesIncludesLookbackEdge(t *testing.T) {
	s := models.NewSchedule()
	s.Set(slot(t, "2024-01-01", models.MealTypeDinner), models.CookMeal("Edge", 1, "2024-01-01"))

	got := LeftoverSources(s, time.Date(2024, 1, 8, 18, 30, 0, 0, time.UTC))
	if len(got) != 1 {
		t.Fatalf("cook exactly %d days back should be a source, got %+v", LeftoverLookbackDays, got)
	}
}
