package models

import (
	"encoding/json"
	"sort"
)

// Schedule is the sparse meal grid: date → meal type → record.
// Absent slots are empty; a date key is only present while it holds at least
// one non-empty record.
type Schedule struct {
	Days map[string]map[MealType]MealRecord `bson:"schedule" json:"schedule"`
}

// ScheduledMeal pairs a slot with its record.
type ScheduledMeal struct {
	Slot   SlotKey    `json:"slot"`
	Record MealRecord `json:"record"`
}

// NewSchedule returns an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{Days: make(map[string]map[MealType]MealRecord)}
}

// Get returns the record at slot, if the slot is occupied.
func (s *Schedule) Get(slot SlotKey) (MealRecord, bool) {
	meals, ok := s.Days[slot.DateString()]
	if !ok {
		return MealRecord{}, false
	}
	rec, ok := meals[slot.MealType]
	if !ok || rec.IsEmpty() {
		return MealRecord{}, false
	}
	return rec, true
}

// IsFree reports whether nothing is planned at slot.
func (s *Schedule) IsFree(slot SlotKey) bool {
	_, ok := s.Get(slot)
	return !ok
}

// Set stores rec at slot. Setting an empty record clears the slot.
func (s *Schedule) Set(slot SlotKey, rec MealRecord) {
	if rec.IsEmpty() {
		s.Clear(slot)
		return
	}
	if s.Days == nil {
		s.Days = make(map[string]map[MealType]MealRecord)
	}
	date := slot.DateString()
	meals, ok := s.Days[date]
	if !ok {
		meals = make(map[MealType]MealRecord, len(MealTypes))
		s.Days[date] = meals
	}
	meals[slot.MealType] = rec
}

// Clear empties slot and drops its date once no meal is left. It reports
// whether a record was removed.
func (s *Schedule) Clear(slot SlotKey) bool {
	date := slot.DateString()
	meals, ok := s.Days[date]
	if !ok {
		return false
	}
	rec, had := meals[slot.MealType]
	delete(meals, slot.MealType)
	if len(meals) == 0 {
		delete(s.Days, date)
	}
	return had && !rec.IsEmpty()
}

// Meals returns every occupied slot with a parseable date and meal type, in
// canonical order. Entries that fail to parse are skipped.
func (s *Schedule) Meals() []ScheduledMeal {
	var out []ScheduledMeal
	for date, meals := range s.Days {
		d, err := ParseDate(date)
		if err != nil {
			continue
		}
		for mt, rec := range meals {
			mealType, err := ParseMealType(string(mt))
			if err != nil || rec.IsEmpty() {
				continue
			}
			out = append(out, ScheduledMeal{Slot: NewSlotKey(d, mealType), Record: rec})
		}
	}
	SortMeals(out)
	return out
}

// Normalize drops explicit "none" records and dates left without meals.
func (s *Schedule) Normalize() {
	if s.Days == nil {
		s.Days = make(map[string]map[MealType]MealRecord)
		return
	}
	for date, meals := range s.Days {
		for mt, rec := range meals {
			if rec.IsEmpty() {
				delete(meals, mt)
			}
		}
		if len(meals) == 0 {
			delete(s.Days, date)
		}
	}
}

// Len returns the number of occupied slots, malformed entries included.
func (s *Schedule) Len() int {
	n := 0
	for _, meals := range s.Days {
		n += len(meals)
	}
	return n
}

// UnmarshalJSON decodes the stored document and normalizes it, so "none"
// placeholders never survive a load.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	type plain Schedule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Schedule(p)
	s.Normalize()
	return nil
}

// SortMeals orders meals canonically.
func SortMeals(meals []ScheduledMeal) {
	sort.SliceStable(meals, func(i, j int) bool {
		return meals[i].Slot.Before(meals[j].Slot)
	})
}
