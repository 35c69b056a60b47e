package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the on-disk and API format of calendar dates.
const DateLayout = "2006-01-02"

// MealType is one of the two daily meal slots.
type MealType string

const (
	MealTypeLunch  MealType = "lunch"
	MealTypeDinner MealType = "dinner"
)

// MealTypes lists the meal types of a day in canonical order.
var MealTypes = []MealType{MealTypeLunch, MealTypeDinner}

// ParseMealType accepts "lunch" or "dinner" in any case.
func ParseMealType(s string) (MealType, error) {
	switch MealType(strings.ToLower(strings.TrimSpace(s))) {
	case MealTypeLunch:
		return MealTypeLunch, nil
	case MealTypeDinner:
		return MealTypeDinner, nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

func (m MealType) index() int {
	if m == MealTypeDinner {
		return 1
	}
	return 0
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a date in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SlotKey addresses one meal slot of the schedule.
type SlotKey struct {
	Date     time.Time
	MealType MealType
}

// NewSlotKey builds a key from a date, dropping any time of day.
func NewSlotKey(date time.Time, mealType MealType) SlotKey {
	y, m, d := date.Date()
	return SlotKey{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), MealType: mealType}
}

// ParseSlotKey parses the external (date, meal type) pair.
func ParseSlotKey(date, mealType string) (SlotKey, error) {
	d, err := ParseDate(date)
	if err != nil {
		return SlotKey{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	mt, err := ParseMealType(mealType)
	if err != nil {
		return SlotKey{}, err
	}
	return NewSlotKey(d, mt), nil
}

// DateString returns the schedule key of the slot's date.
func (k SlotKey) DateString() string {
	return FormatDate(k.Date)
}

func (k SlotKey) String() string {
	return k.DateString() + "/" + string(k.MealType)
}

// Next returns the following slot: lunch to dinner, dinner to next day's lunch.
func (k SlotKey) Next() SlotKey {
	if k.MealType == MealTypeLunch {
		return SlotKey{Date: k.Date, MealType: MealTypeDinner}
	}
	return SlotKey{Date: k.Date.AddDate(0, 0, 1), MealType: MealTypeLunch}
}

// Compare orders slots by date, then lunch before dinner.
func (k SlotKey) Compare(o SlotKey) int {
	switch {
	case k.Date.Before(o.Date):
		return -1
	case k.Date.After(o.Date):
		return 1
	}
	return k.MealType.index() - o.MealType.index()
}

// Before reports whether k sorts strictly before o.
func (k SlotKey) Before(o SlotKey) bool {
	return k.Compare(o) < 0
}

type slotKeyJSON struct {
	Date     string   `json:"date"`
	MealType MealType `json:"meal_type"`
}

func (k SlotKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotKeyJSON{Date: k.DateString(), MealType: k.MealType})
}

func (k *SlotKey) UnmarshalJSON(data []byte) error {
	var raw slotKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSlotKey(raw.Date, string(raw.MealType))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MealKind discriminates MealRecord.
type MealKind string

const (
	MealKindCook      MealKind = "cook"
	MealKindBought    MealKind = "bought"
	MealKindFrozen    MealKind = "frozen"
	MealKindLeftovers MealKind = "leftovers"
	MealKindNone      MealKind = "none"
)

// MealRecord is the content of a slot. Which fields are meaningful depends on Kind:
//
//	cook:      DishName, LeftoverMeals, LeftoverID
//	bought:    Description
//	frozen:    Description
//	leftovers: DishName, CookedDate, LeftoverID
//	none:      nothing
type MealRecord struct {
	Kind          MealKind `bson:"type" json:"type"`
	DishName      string   `bson:"dish_name,omitempty" json:"dish_name,omitempty"`
	LeftoverMeals int      `bson:"leftover_meals,omitempty" json:"leftover_meals,omitempty"`
	LeftoverID    string   `bson:"leftover_id,omitempty" json:"leftover_id,omitempty"`
	CookedDate    string   `bson:"cooked_date,omitempty" json:"cooked_date,omitempty"`
	Description   string   `bson:"description,omitempty" json:"description,omitempty"`
}

// LeftoverIDFor derives the chain id of a dish cooked on date: the lower-cased
// name with whitespace turned into hyphens, then the date.
func LeftoverIDFor(dishName, date string) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return unicode.ToLower(r)
	}, dishName)
	return slug + "-" + date
}

// CookMeal builds a cook record for a dish cooked on date.
func CookMeal(dishName string, leftoverMeals int, date string) MealRecord {
	return MealRecord{
		Kind:          MealKindCook,
		DishName:      dishName,
		LeftoverMeals: leftoverMeals,
		LeftoverID:    LeftoverIDFor(dishName, date),
	}
}

func BoughtMeal(description string) MealRecord {
	return MealRecord{Kind: MealKindBought, Description: description}
}

func FrozenMeal(description string) MealRecord {
	return MealRecord{Kind: MealKindFrozen, Description: description}
}

// LeftoverMeal builds a record eating leftovers of the cook event leftoverID.
func LeftoverMeal(dishName, cookedDate, leftoverID string) MealRecord {
	return MealRecord{
		Kind:       MealKindLeftovers,
		DishName:   dishName,
		CookedDate: cookedDate,
		LeftoverID: leftoverID,
	}
}

// NoMeal is the explicit empty record.
func NoMeal() MealRecord {
	return MealRecord{Kind: MealKindNone}
}

// IsEmpty reports whether the record is equivalent to an absent slot.
func (r MealRecord) IsEmpty() bool {
	return r.Kind == "" || r.Kind == MealKindNone
}

func (r MealRecord) IsCook() bool {
	return r.Kind == MealKindCook
}

func (r MealRecord) IsLeftover() bool {
	return r.Kind == MealKindLeftovers
}

type cookJSON struct {
	Kind          MealKind `json:"type"`
	DishName      string   `json:"dish_name"`
	LeftoverMeals int      `json:"leftover_meals"`
	LeftoverID    string   `json:"leftover_id"`
}

type describedJSON struct {
	Kind        MealKind `json:"type"`
	Description string   `json:"description"`
}

type leftoverJSON struct {
	Kind       MealKind `json:"type"`
	DishName   string   `json:"dish_name"`
	CookedDate string   `json:"cooked_date"`
	LeftoverID string   `json:"leftover_id"`
}

// MarshalJSON emits exactly the fields of the record's kind.
func (r MealRecord) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case MealKindCook:
		return json.Marshal(cookJSON{r.Kind, r.DishName, r.LeftoverMeals, r.LeftoverID})
	case MealKindBought, MealKindFrozen:
		return json.Marshal(describedJSON{r.Kind, r.Description})
	case MealKindLeftovers:
		return json.Marshal(leftoverJSON{r.Kind, r.DishName, r.CookedDate, r.LeftoverID})
	case "", MealKindNone:
		return []byte(`{"type":"none"}`), nil
	}
	type plain MealRecord
	return json.Marshal(plain(r))
}

func (r *MealRecord) UnmarshalJSON(data []byte) error {
	type plain MealRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = MealRecord(p)
	if r.Kind == "" {
		r.Kind = MealKindNone
	}
	return nil
}
