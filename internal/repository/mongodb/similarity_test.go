package mongodb

import (
	"testing"

	"github.com/nutrilog/nutrilog/internal/domain/models"
)

func TestSimilarityExactMatchScoresHighest(t *testing.T) {
	t.Parallel()

	exact := Similarity("banana", "Banana")
	partial := Similarity("banana", "banana bread")
	if exact != 1 {
		t.Fatalf("exact normalized match should score 1, got %v", exact)
	}
	if partial >= exact {
		t.Fatalf("partial match %v should rank below exact %v", partial, exact)
	}
}

func TestSimilarityPrefersPlainestCandidate(t *testing.T) {
	t.Parallel()

	short := Similarity("banana", "banana raw")
	long := Similarity("banana", "banana bread toasted with butter")
	if short <= long {
		t.Fatalf("shorter candidate should outrank longer: short=%v long=%v", short, long)
	}
}

func TestSimilarityHandlesDegenerateInput(t *testing.T) {
	t.Parallel()

	if got := Similarity("", "banana"); got != 0 {
		t.Fatalf("empty query should score 0, got %v", got)
	}
	if got := Similarity("banana", "  !! "); got != 0 {
		t.Fatalf("empty candidate should score 0, got %v", got)
	}
}

func TestAccumulateSumsEntryTotals(t *testing.T) {
	t.Parallel()

	cal := 250
	dur := 30.0
	entry := models.LogEntry{
		Exercise: []models.ExerciseEntry{
			{Name: "running", CaloriesBurned: &cal, TimeMin: &dur},
		},
		Food: []models.FoodEntry{
			{Name: "banana", Nutrition: models.NutritionFacts{Calories: 134, Protein: 1.5, Carbs: 34.5, Fat: 0.5}},
			{Name: "toast", Nutrition: models.NutritionFacts{Calories: 80, Protein: 3.0, Carbs: 14.0, Fat: 1.0}},
		},
	}

	var summary models.DailySummary
	Accumulate(&summary, entry)

	if summary.MealCount != 1 || summary.WorkoutCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.CaloriesIn != 214 || summary.CaloriesBurned != 250 {
		t.Fatalf("unexpected calories: %+v", summary)
	}
	if summary.Protein != 4.5 || summary.WorkoutTimeMin != 30 {
		t.Fatalf("unexpected macros/time: %+v", summary)
	}
}
