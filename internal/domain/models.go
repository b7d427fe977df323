package domain

import (
	"math"
	"time"
)

// DateLayout is the key format of a daily log
const DateLayout = "2006-01-02"

// MealSlot identifies one of the fixed meal slots of a day
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
	SlotSnack     MealSlot = "snack"
)

// MealSlots lists the canonical slots in display order
var MealSlots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

var slotLabels = map[string]map[MealSlot]string{
	"en": {
		SlotBreakfast: "Breakfast",
		SlotLunch:     "Lunch",
		SlotDinner:    "Dinner",
		SlotSnack:     "Snack",
	},
	"zh": {
		SlotBreakfast: "早餐",
		SlotLunch:     "午餐",
		SlotDinner:    "晚餐",
		SlotSnack:     "加餐",
	},
}

// Valid reports whether s is one of the canonical slots
func (s MealSlot) Valid() bool {
	for _, slot := range MealSlots {
		if slot == s {
			return true
		}
	}
	return false
}

// Label returns the display name of the slot for lang, falling back to English
func (s MealSlot) Label(lang string) string {
	labels, ok := slotLabels[lang]
	if !ok {
		labels = slotLabels["en"]
	}
	if label, ok := labels[s]; ok {
		return label
	}
	return string(s)
}

// Ingredient is the nutrient record of one logged food item.
// AddedOilCalories is informational: it overlaps the calories derived from Fat
// and is never added on top of Calories.
type Ingredient struct {
	ID               string  `json:"id"`
	Name             string  `json:"name" validate:"required"`
	Weight           float64 `json:"weight" validate:"gte=0"`
	Calories         float64 `json:"calories" validate:"gte=0"`
	Protein          float64 `json:"protein" validate:"gte=0"`
	Carbs            float64 `json:"carbs" validate:"gte=0"`
	Fat              float64 `json:"fat" validate:"gte=0"`
	AddedOilCalories float64 `json:"addedOilCalories" validate:"gte=0"`
	Note             string  `json:"note,omitempty"`
}

// Meal is one slot of a daily log
type Meal struct {
	ID          string       `json:"id"`
	Slot        MealSlot     `json:"slot"`
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"createdAt"`
	Items       []Ingredient `json:"items"`
	CookingNote string       `json:"cookingNote,omitempty"`
	Skipped     bool         `json:"skipped,omitempty"`
}

// Logged reports whether the meal has any items
func (m Meal) Logged() bool {
	return len(m.Items) > 0
}

// Clone returns a copy of m that shares no slices with it
func (m Meal) Clone() Meal {
	out := m
	out.Items = append([]Ingredient(nil), m.Items...)
	if out.Items == nil {
		out.Items = []Ingredient{}
	}
	return out
}

// BodyMetrics holds the optional measurements of a day. Nil means not measured.
type BodyMetrics struct {
	Weight *float64 `json:"weight,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Thigh  *float64 `json:"thigh,omitempty"`
	Calf   *float64 `json:"calf,omitempty"`
}

// Empty reports whether nothing was measured
func (b BodyMetrics) Empty() bool {
	return b.Weight == nil && b.Waist == nil && b.Thigh == nil && b.Calf == nil
}

// Merge returns b with every measurement present in other applied on top
func (b BodyMetrics) Merge(other BodyMetrics) BodyMetrics {
	out := b.Clone()
	if other.Weight != nil {
		out.Weight = Float(*other.Weight)
	}
	if other.Waist != nil {
		out.Waist = Float(*other.Waist)
	}
	if other.Thigh != nil {
		out.Thigh = Float(*other.Thigh)
	}
	if other.Calf != nil {
		out.Calf = Float(*other.Calf)
	}
	return out
}

// Clone copies the pointed-to values
func (b BodyMetrics) Clone() BodyMetrics {
	var out BodyMetrics
	if b.Weight != nil {
		out.Weight = Float(*b.Weight)
	}
	if b.Waist != nil {
		out.Waist = Float(*b.Waist)
	}
	if b.Thigh != nil {
		out.Thigh = Float(*b.Thigh)
	}
	if b.Calf != nil {
		out.Calf = Float(*b.Calf)
	}
	return out
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// DailyLog is everything recorded for one calendar date
type DailyLog struct {
	Date        string      `json:"date"`
	Meals       []Meal      `json:"meals"`
	BodyMetrics BodyMetrics `json:"bodyMetrics"`
	Note        string      `json:"note,omitempty"`
}

// Meal returns the meal in slot
func (l DailyLog) Meal(slot MealSlot) (Meal, bool) {
	for _, m := range l.Meals {
		if m.Slot == slot {
			return m, true
		}
	}
	return Meal{}, false
}

// WithMeal returns a copy of l where the meal of the same slot is replaced by meal
func (l DailyLog) WithMeal(meal Meal) DailyLog {
	out := l.Clone()
	for i, m := range out.Meals {
		if m.Slot == meal.Slot {
			out.Meals[i] = meal.Clone()
			return out
		}
	}
	out.Meals = append(out.Meals, meal.Clone())
	return out
}

// Clone returns a deep copy of l
func (l DailyLog) Clone() DailyLog {
	out := l
	out.Meals = make([]Meal, len(l.Meals))
	for i, m := range l.Meals {
		out.Meals[i] = m.Clone()
	}
	out.BodyMetrics = l.BodyMetrics.Clone()
	return out
}

// Normalize returns l with every canonical slot present, in canonical order.
// Slots missing from stored data are filled from the default factory.
func (l DailyLog) Normalize() DailyLog {
	out := l.Clone()
	meals := make([]Meal, 0, len(MealSlots))
	for _, slot := range MealSlots {
		if m, ok := out.Meal(slot); ok {
			if m.Items == nil {
				m.Items = []Ingredient{}
			}
			meals = append(meals, m)
			continue
		}
		meals = append(meals, emptyMeal(l.Date, slot))
	}
	out.Meals = meals
	return out
}

// ParseDate parses a YYYY-MM-DD key
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// FormatDate formats t as a log key
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MealID derives the identity of a slot on a date
func MealID(date string, slot MealSlot) string {
	return date + "-" + string(slot)
}

func emptyMeal(date string, slot MealSlot) Meal {
	created, err := ParseDate(date)
	if err != nil {
		created = time.Time{}
	}
	return Meal{
		ID:        MealID(date, slot),
		Slot:      slot,
		Name:      slot.Label("en"),
		CreatedAt: created.UTC(),
		Items:     []Ingredient{},
	}
}

// DefaultBreakfastItems are the records every new day starts with
func DefaultBreakfastItems(date string) []Ingredient {
	return []Ingredient{
		{
			ID:       MealID(date, SlotBreakfast) + "-egg",
			Name:     "Boiled egg",
			Weight:   50,
			Calories: 70,
			Protein:  6,
			Carbs:    0.6,
			Fat:      5,
		},
		{
			ID:       MealID(date, SlotBreakfast) + "-milk",
			Name:     "Milk",
			Weight:   250,
			Calories: 150,
			Protein:  8,
			Carbs:    12,
			Fat:      8,
		},
	}
}

// NewDailyLog returns the default log of date. It is a pure factory: it
// touches no store and returns equal values for equal dates.
func NewDailyLog(date string) DailyLog {
	meals := make([]Meal, 0, len(MealSlots))
	for _, slot := range MealSlots {
		m := emptyMeal(date, slot)
		if slot == SlotBreakfast {
			m.Items = DefaultBreakfastItems(date)
		}
		meals = append(meals, m)
	}
	return DailyLog{
		Date:  date,
		Meals: meals,
	}
}

// Snapshot maps a date key to its daily log
type Snapshot map[string]DailyLog

// Clone returns a deep copy of s
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for date, log := range s {
		out[date] = log.Clone()
	}
	return out
}

// MacroGoals is the daily target configuration. Carb and fat grams are derived.
type MacroGoals struct {
	Calories        float64 `json:"calories" yaml:"calories" validate:"gt=0"`
	Protein         float64 `json:"protein" yaml:"protein" validate:"gte=0"`
	CarbsPercentage float64 `json:"carbsPercentage" yaml:"carbs_percentage" validate:"gte=0,lte=1"`
	FatPercentage   float64 `json:"fatPercentage" yaml:"fat_percentage" validate:"gte=0,lte=1"`
}

// DefaultMacroGoals returns the documented default targets
func DefaultMacroGoals() MacroGoals {
	return MacroGoals{
		Calories:        1350,
		Protein:         75,
		CarbsPercentage: 0.55,
		FatPercentage:   0.25,
	}
}

// CarbsGrams is the carbohydrate target in grams (4 kcal/g)
func (g MacroGoals) CarbsGrams() float64 {
	return math.Round(g.Calories * g.CarbsPercentage / 4)
}

// FatGrams is the fat target in grams (9 kcal/g)
func (g MacroGoals) FatGrams() float64 {
	return math.Round(g.Calories * g.FatPercentage / 9)
}

// MacroTotals is the elementwise sum of nutrient records
type MacroTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	AddedOil float64 `json:"addedOil"`
}

// Add returns the sum of t and o
func (t MacroTotals) Add(o MacroTotals) MacroTotals {
	return MacroTotals{
		Calories: t.Calories + o.Calories,
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fat:      t.Fat + o.Fat,
		AddedOil: t.AddedOil + o.AddedOil,
	}
}

// GoalProgress is the evaluation of totals against goals
type GoalProgress struct {
	TargetCalories    float64 `json:"targetCalories"`
	TargetProtein     float64 `json:"targetProtein"`
	TargetCarbsGrams  float64 `json:"targetCarbsGrams"`
	TargetFatGrams    float64 `json:"targetFatGrams"`
	CaloriesPercent   float64 `json:"caloriesPercent"`
	ProteinPercent    float64 `json:"proteinPercent"`
	CarbsPercent      float64 `json:"carbsPercent"`
	FatPercent        float64 `json:"fatPercent"`
	CarbEnergyRatio   float64 `json:"carbEnergyRatio"`
	CarbRatioOnTarget bool    `json:"carbRatioOnTarget"`
	OverBudget        bool    `json:"overBudget"`
	RemainingCalories float64 `json:"remainingCalories"`
	RemainingProtein  float64 `json:"remainingProtein"`
}

// DaySummary bundles a log with its derived numbers
type DaySummary struct {
	Log      DailyLog     `json:"log"`
	Totals   MacroTotals  `json:"totals"`
	Progress GoalProgress `json:"progress"`
	Goals    MacroGoals   `json:"goals"`
}

// ReportKind selects the emphasis of a weekly report
type ReportKind string

const (
	ReportNutrition ReportKind = "nutrition"
	ReportFatLoss   ReportKind = "fat_loss"
)

// ParseReportKind maps user input to a kind, defaulting to nutrition
func ParseReportKind(s string) ReportKind {
	switch ReportKind(s) {
	case ReportFatLoss:
		return ReportFatLoss
	default:
		return ReportNutrition
	}
}

// Recommendation is the chosen meal option
type Recommendation struct {
	Choice    string `json:"choice"`
	Portion   string `json:"portion"`
	Reasoning string `json:"reasoning"`
}

// FoodEntry is the validated outcome of a structured extraction
type FoodEntry struct {
	Items           []Ingredient `json:"items"`
	CookingAnalysis string       `json:"cookingAnalysis"`
}
