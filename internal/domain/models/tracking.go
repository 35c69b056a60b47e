package models

import "sort"

// IngredientStatus records whether an ingredient has been bought.
type IngredientStatus struct {
	Obtained bool `bson:"obtained" json:"obtained"`
}

// IngredientAcquisition tracks the ingredients of one planned cook event.
// PlannedCookingDate is kept as stored text so malformed values survive.
type IngredientAcquisition struct {
	DishName           string                      `bson:"dish_name" json:"dish_name"`
	PlannedCookingDate string                      `bson:"planned_cooking_date" json:"planned_cooking_date"`
	Ingredients        map[string]IngredientStatus `bson:"ingredients" json:"ingredients"`
}

// Complete reports whether every ingredient has been obtained.
func (a IngredientAcquisition) Complete() bool {
	for _, st := range a.Ingredients {
		if !st.Obtained {
			return false
		}
	}
	return true
}

// Missing lists the ingredients not yet obtained, sorted.
func (a IngredientAcquisition) Missing() []string {
	var out []string
	for name, st := range a.Ingredients {
		if !st.Obtained {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IngredientTracking is the persisted acquisition document.
type IngredientTracking struct {
	Acquisitions []IngredientAcquisition `bson:"ingredient_acquisitions" json:"ingredient_acquisitions"`
}

// NewIngredientTracking returns an empty document.
func NewIngredientTracking() *IngredientTracking {
	return &IngredientTracking{Acquisitions: []IngredientAcquisition{}}
}

// Find returns the index of the record for dish and date, or -1. Dish names
// match ignoring case.
func (t *IngredientTracking) Find(dishName, date string) int {
	key := DishKey(dishName)
	for i, a := range t.Acquisitions {
		if DishKey(a.DishName) == key && a.PlannedCookingDate == date {
			return i
		}
	}
	return -1
}
