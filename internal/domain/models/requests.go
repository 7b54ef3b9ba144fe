package models

import "time"

// LogRequest is the shared inbound payload for all logging routes.
type LogRequest struct {
	Input     string     `json:"input" binding:"required"`
	MealType  string     `json:"mealType"`
	Timestamp *time.Time `json:"timestamp"`
}

// MealLogResponse is the meal-shaped view of a LogEntry.
type MealLogResponse struct {
	Timestamp      time.Time      `json:"timestamp"`
	RawInput       string         `json:"rawInput"`
	MealType       string         `json:"mealType,omitempty"`
	Items          []FoodEntry    `json:"items"`
	TotalNutrition NutritionFacts `json:"totalNutrition"`
}

// WorkoutLogResponse is the workout-shaped view of a LogEntry.
type WorkoutLogResponse struct {
	Timestamp           time.Time       `json:"timestamp"`
	RawInput            string          `json:"rawInput"`
	Exercises           []ExerciseEntry `json:"exercises"`
	TotalCaloriesBurned int             `json:"totalCaloriesBurned"`
	TotalDurationMin    float64         `json:"totalDurationMin"`
}

// MealView projects the entry's food items with summed macros.
func (e LogEntry) MealView(rawInput, mealType string) MealLogResponse {
	var total NutritionFacts
	for _, f := range e.Food {
		total.Calories += f.Nutrition.Calories
		total.Protein += f.Nutrition.Protein
		total.Carbs += f.Nutrition.Carbs
		total.Fat += f.Nutrition.Fat
	}
	return MealLogResponse{
		Timestamp:      e.Timestamp,
		RawInput:       rawInput,
		MealType:       mealType,
		Items:          e.Food,
		TotalNutrition: total,
	}
}

// WorkoutView projects the entry's exercises with summed calories and time.
func (e LogEntry) WorkoutView(rawInput string) WorkoutLogResponse {
	resp := WorkoutLogResponse{
		Timestamp: e.Timestamp,
		RawInput:  rawInput,
		Exercises: e.Exercise,
	}
	for _, ex := range e.Exercise {
		if ex.CaloriesBurned != nil {
			resp.TotalCaloriesBurned += *ex.CaloriesBurned
		}
		if ex.TimeMin != nil {
			resp.TotalDurationMin += *ex.TimeMin
		}
	}
	return resp
}
