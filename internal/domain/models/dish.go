package models

import "strings"

// Dish is a catalog entry. Names are unique ignoring case.
type Dish struct {
	Name        string   `bson:"name" json:"name"`
	Tags        []string `bson:"tags" json:"tags"`
	Ingredients []string `bson:"ingredients" json:"ingredients"`
	Recipe      string   `bson:"recipe" json:"recipe"`
}

// DishKey normalizes a dish name for lookups.
func DishKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Matches reports whether filter occurs in the name or any tag, ignoring case.
func (d Dish) Matches(filter string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Name), filter) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), filter) {
			return true
		}
	}
	return false
}
