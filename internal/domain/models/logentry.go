package models

import "time"

// ExerciseEntry is a single exercise activity extracted from user input.
// Optional numeric descriptors are pointers: nil means the user never
// mentioned the value, never a zero placeholder.
type ExerciseEntry struct {
	Name           string   `json:"name"`
	Sets           *int     `json:"sets"`
	Reps           *int     `json:"reps"`
	WeightKg       *float64 `json:"weight_kg"`
	DistanceKm     *float64 `json:"distance_km"`
	TimeMin        *float64 `json:"time_min"`
	CaloriesBurned *int     `json:"calories_burned"`
}

// FoodEntry is a single food item extracted from user input. After the
// resolution stage QuantityG is always populated and Nutrition is complete.
type FoodEntry struct {
	Name          string         `json:"name"`
	QuantityG     *float64       `json:"quantity_g"`
	QuantityItems *int           `json:"quantity_items"`
	Nutrition     NutritionFacts `json:"nutrition"`
}

// NutritionFacts holds the macro profile for one food entry. The four
// fields are populated together; a partially filled NutritionFacts is not
// a valid state.
type NutritionFacts struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// IsZero reports whether no macro field has been populated.
func (n NutritionFacts) IsZero() bool {
	return n.Calories == 0 && n.Protein == 0 && n.Carbs == 0 && n.Fat == 0
}

// HasNegative reports whether any macro field is below zero. Negative
// macros are never a valid state.
func (n NutritionFacts) HasNegative() bool {
	return n.Calories < 0 || n.Protein < 0 || n.Carbs < 0 || n.Fat < 0
}

// LogEntry is the assembled result of one user submission. Slice order
// preserves extraction order, which mirrors mention order in the input.
// A LogEntry is constructed once per request and never mutated afterwards.
type LogEntry struct {
	Exercise     []ExerciseEntry `json:"exercise"`
	Food         []FoodEntry     `json:"food"`
	BodyWeightKg *float64        `json:"body_weight_kg"`
	Timestamp    time.Time       `json:"timestamp"`
}

// EmptyLogEntry returns a degraded entry with no entities. Used when the
// extraction stage cannot produce a draft; the endpoint still answers.
func EmptyLogEntry(at time.Time) LogEntry {
	return LogEntry{
		Exercise:  []ExerciseEntry{},
		Food:      []FoodEntry{},
		Timestamp: at,
	}
}

// FoodRecord is one row of the reference nutrition dataset: per-100g macro
// values plus a typical serving weight in grams.
type FoodRecord struct {
	Name            string  `bson:"name"`
	CaloriesPer100g float64 `bson:"calories_per_100g"`
	ProteinPer100g  float64 `bson:"protein_per_100g"`
	CarbsPer100g    float64 `bson:"carbs_per_100g"`
	FatPer100g      float64 `bson:"fat_per_100g"`
	TypicalServingG float64 `bson:"typical_serving_g"`
}

// StoredLogEntry is the persisted form of a LogEntry, bound to the user
// that submitted it.
type StoredLogEntry struct {
	UserID   string   `bson:"user_id"`
	RawInput string   `bson:"raw_input"`
	Entry    LogEntry `bson:"entry"`
}

// DailySummary aggregates one user's entries for a single day.
type DailySummary struct {
	UserID         string  `bson:"user_id" json:"-"`
	Date           string  `bson:"date" json:"date"`
	MealCount      int     `bson:"meal_count" json:"mealCount"`
	WorkoutCount   int     `bson:"workout_count" json:"workoutCount"`
	CaloriesIn     int     `bson:"calories_in" json:"caloriesConsumed"`
	CaloriesBurned int     `bson:"calories_burned" json:"caloriesBurned"`
	Protein        float64 `bson:"protein" json:"protein"`
	Carbs          float64 `bson:"carbs" json:"carbs"`
	Fat            float64 `bson:"fat" json:"fat"`
	WorkoutTimeMin float64 `bson:"workout_time_min" json:"workoutTimeMin"`
}
