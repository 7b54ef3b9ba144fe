package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nutrilog/nutrilog/internal/domain/models"
	"github.com/nutrilog/nutrilog/internal/service/extraction"
	"github.com/nutrilog/nutrilog/internal/service/nutrition"
	"github.com/nutrilog/nutrilog/internal/service/workout"
)

type stubExtractor struct {
	draft extraction.Draft
	err   error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (extraction.Draft, error) {
	return s.draft, s.err
}

type stubResolver struct {
	bySource map[string]nutrition.Resolution
}

func (s *stubResolver) Resolve(_ context.Context, name string, quantityG *float64, _ *int) nutrition.Resolution {
	if res, ok := s.bySource[name]; ok {
		return res
	}
	return nutrition.Defaults(quantityG)
}

type stubEstimator struct {
	est workout.Estimate
}

func (s *stubEstimator) Estimate(_ context.Context, entry models.ExerciseEntry) workout.Estimate {
	if s.est.CaloriesBurned != 0 || s.est.DurationMin != 0 {
		return s.est
	}
	return workout.Defaults(entry.TimeMin)
}

func floatPtr(v float64) *float64 { return &v }

func newDraft() extraction.Draft {
	return extraction.Draft{
		Exercise: []extraction.DraftExercise{
			{Name: "running", DistanceKm: floatPtr(5)},
		},
		Food: []extraction.DraftFood{
			{Name: "banana", QuantityG: floatPtr(150)},
		},
	}
}

func TestProcessLogInputAssemblesCompleteEntry(t *testing.T) {
	t.Parallel()

	svc := NewService(
		&stubExtractor{draft: newDraft()},
		&stubResolver{bySource: map[string]nutrition.Resolution{
			"banana": {
				Facts:     models.NutritionFacts{Calories: 134, Protein: 1.6, Carbs: 34.3, Fat: 0.5},
				QuantityG: 150,
				Source:    nutrition.SourceDataset,
			},
		}},
		&stubEstimator{est: workout.Estimate{CaloriesBurned: 310, DurationMin: 28, FromModel: true}},
		nil,
	)

	res := svc.ProcessLogInput(context.Background(), "ran 5km and ate a 150g banana", nil)

	if res.Degraded() {
		t.Fatalf("unexpected degradations %+v", res.Degradations)
	}
	entry := res.Entry
	if entry.Timestamp.IsZero() {
		t.Fatal("timestamp must always be set")
	}
	if len(entry.Exercise) != 1 || len(entry.Food) != 1 {
		t.Fatalf("unexpected entry shape %+v", entry)
	}

	ex := entry.Exercise[0]
	if ex.Name != "running" || ex.DistanceKm == nil || *ex.DistanceKm != 5 {
		t.Fatalf("unexpected exercise %+v", ex)
	}
	if ex.CaloriesBurned == nil || *ex.CaloriesBurned != 310 {
		t.Fatalf("resolution output must be authoritative: %+v", ex)
	}
	if ex.TimeMin == nil || *ex.TimeMin != 28 {
		t.Fatalf("estimated duration must be attached: %+v", ex)
	}

	f := entry.Food[0]
	if f.Name != "banana" || f.QuantityG == nil || *f.QuantityG != 150 {
		t.Fatalf("unexpected food %+v", f)
	}
	if f.Nutrition.Calories != 134 {
		t.Fatalf("nutrition must come from the resolver: %+v", f.Nutrition)
	}
	if entry.BodyWeightKg != nil {
		t.Fatal("body weight must stay absent when not mentioned")
	}
}

func TestProcessLogInputDegradesToEmptyOnExtractionFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(
		&stubExtractor{err: errors.New("service unreachable")},
		&stubResolver{},
		&stubEstimator{},
		nil,
	)

	res := svc.ProcessLogInput(context.Background(), "ate a banana", nil)

	if !res.Degraded() {
		t.Fatal("extraction failure must surface as a degradation")
	}
	entry := res.Entry
	if len(entry.Exercise) != 0 || len(entry.Food) != 0 {
		t.Fatalf("expected empty sequences, got %+v", entry)
	}
	if entry.Exercise == nil || entry.Food == nil {
		t.Fatal("sequences must be empty, not absent")
	}
	if entry.BodyWeightKg != nil {
		t.Fatal("body weight must be absent")
	}
	if entry.Timestamp.IsZero() {
		t.Fatal("even a degraded entry carries a timestamp")
	}
}

func TestProcessLogInputDiscardsInlineEstimates(t *testing.T) {
	t.Parallel()

	inline := 999
	draft := newDraft()
	draft.Exercise[0].CaloriesBurned = &inline
	draft.Food[0].Nutrition = &models.NutritionFacts{Calories: 9999, Protein: 99, Carbs: 99, Fat: 99}

	svc := NewService(
		&stubExtractor{draft: draft},
		&stubResolver{bySource: map[string]nutrition.Resolution{
			"banana": {
				Facts:     models.NutritionFacts{Calories: 134, Protein: 1.6, Carbs: 34.3, Fat: 0.5},
				QuantityG: 150,
				Source:    nutrition.SourceDataset,
			},
		}},
		&stubEstimator{est: workout.Estimate{CaloriesBurned: 310, DurationMin: 28, FromModel: true}},
		nil,
	)

	res := svc.ProcessLogInput(context.Background(), "ran 5km and ate a 150g banana", nil)

	if got := *res.Entry.Exercise[0].CaloriesBurned; got != 310 {
		t.Fatalf("inline exercise estimate must be discarded, got %d", got)
	}
	if got := res.Entry.Food[0].Nutrition.Calories; got != 134 {
		t.Fatalf("inline nutrition estimate must be discarded, got %d", got)
	}
}

func TestProcessLogInputUsesExplicitTimestamp(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	svc := NewService(&stubExtractor{draft: extraction.Draft{
		Exercise: []extraction.DraftExercise{},
		Food:     []extraction.DraftFood{},
	}}, &stubResolver{}, &stubEstimator{}, nil)

	res := svc.ProcessLogInput(context.Background(), "rest day", &at)
	if !res.Entry.Timestamp.Equal(at) {
		t.Fatalf("expected explicit timestamp, got %v", res.Entry.Timestamp)
	}
	if res.Entry.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamps are stored in UTC, got %v", res.Entry.Timestamp.Location())
	}
}

func TestProcessLogInputRepairsIncompleteResolutions(t *testing.T) {
	t.Parallel()

	svc := NewService(
		&stubExtractor{draft: extraction.Draft{
			Exercise: []extraction.DraftExercise{},
			Food:     []extraction.DraftFood{{Name: "mystery", QuantityG: floatPtr(150)}},
		}},
		&stubResolver{bySource: map[string]nutrition.Resolution{
			"mystery": {Source: nutrition.SourceModel}, // zero facts, zero quantity
		}},
		&stubEstimator{},
		nil,
	)

	res := svc.ProcessLogInput(context.Background(), "ate some mystery stew", nil)

	f := res.Entry.Food[0]
	if f.QuantityG == nil || *f.QuantityG != 150 {
		t.Fatalf("repair must keep the stated quantity, got %+v", f.QuantityG)
	}
	want := models.NutritionFacts{Calories: 300, Protein: 15.0, Carbs: 30.0, Fat: 7.5}
	if f.Nutrition != want {
		t.Fatalf("repair must substitute deterministic defaults: %+v", f.Nutrition)
	}
	if !res.Degraded() {
		t.Fatal("repair is a degradation and must be reported")
	}
}

func TestProcessLogInputRepairsNegativeResolutions(t *testing.T) {
	t.Parallel()

	svc := NewService(
		&stubExtractor{draft: extraction.Draft{
			Exercise: []extraction.DraftExercise{{Name: "stretching"}},
			Food:     []extraction.DraftFood{{Name: "diet soda", QuantityG: floatPtr(150)}},
		}},
		&stubResolver{bySource: map[string]nutrition.Resolution{
			"diet soda": {
				Facts:     models.NutritionFacts{Calories: -500, Protein: -3.2, Carbs: 10, Fat: 1},
				QuantityG: 150,
				Source:    nutrition.SourceModel,
			},
		}},
		&stubEstimator{est: workout.Estimate{CaloriesBurned: -120, DurationMin: 30, FromModel: true}},
		nil,
	)

	res := svc.ProcessLogInput(context.Background(), "stretched and had a diet soda", nil)

	f := res.Entry.Food[0]
	if f.Nutrition.HasNegative() {
		t.Fatalf("assembled nutrition must never be negative: %+v", f.Nutrition)
	}
	want := models.NutritionFacts{Calories: 300, Protein: 15.0, Carbs: 30.0, Fat: 7.5}
	if f.Nutrition != want {
		t.Fatalf("negative facts must be replaced by defaults: %+v", f.Nutrition)
	}

	ex := res.Entry.Exercise[0]
	if *ex.CaloriesBurned < 0 {
		t.Fatalf("assembled burn must never be negative: %d", *ex.CaloriesBurned)
	}
	if *ex.CaloriesBurned != 150 || *ex.TimeMin != 30 {
		t.Fatalf("negative burn must be replaced by defaults: %+v", ex)
	}
	if !res.Degraded() {
		t.Fatal("repair is a degradation and must be reported")
	}
}

func TestProcessLogInputPreservesExtractionOrder(t *testing.T) {
	t.Parallel()

	draft := extraction.Draft{
		Exercise: []extraction.DraftExercise{},
		Food:     make([]extraction.DraftFood, 8),
	}
	resolver := &stubResolver{bySource: map[string]nutrition.Resolution{}}
	for i := range draft.Food {
		name := fmt.Sprintf("food-%d", i)
		draft.Food[i] = extraction.DraftFood{Name: name}
		resolver.bySource[name] = nutrition.Resolution{
			Facts:     models.NutritionFacts{Calories: i + 1, Protein: 1, Carbs: 1, Fat: 1},
			QuantityG: 100,
			Source:    nutrition.SourceDataset,
		}
	}

	svc := NewService(&stubExtractor{draft: draft}, resolver, &stubEstimator{}, nil)
	res := svc.ProcessLogInput(context.Background(), "a big meal", nil)

	for i, f := range res.Entry.Food {
		if f.Name != fmt.Sprintf("food-%d", i) {
			t.Fatalf("order not preserved at %d: %+v", i, f)
		}
		if f.Nutrition.Calories != i+1 {
			t.Fatalf("resolution misaligned at %d: %+v", i, f.Nutrition)
		}
	}
}
