package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/domain/models"
	"github.com/nutrilog/nutrilog/internal/service/extraction"
	"github.com/nutrilog/nutrilog/internal/service/nutrition"
	"github.com/nutrilog/nutrilog/internal/service/workout"
)

// Processor is the single operation the HTTP layer consumes.
type Processor interface {
	ProcessLogInput(ctx context.Context, rawText string, at *time.Time) Result
}

// Degradation records that a stage fell back for one item. It is data, not
// an error: the pipeline result is always complete.
type Degradation struct {
	Stage  string `json:"stage"`
	Item   string `json:"item,omitempty"`
	Reason string `json:"reason"`
}

// Result is the pipeline output: the assembled entry plus any degradations
// observed along the way.
type Result struct {
	Entry        models.LogEntry
	Degradations []Degradation
}

// Degraded reports whether any stage fell back.
func (r Result) Degraded() bool { return len(r.Degradations) > 0 }

// Extractor is stage 1.
type Extractor interface {
	Extract(ctx context.Context, text string) (extraction.Draft, error)
}

// NutritionResolver is stage 2.
type NutritionResolver interface {
	Resolve(ctx context.Context, name string, quantityG *float64, quantityItems *int) nutrition.Resolution
}

// WorkoutEstimator is stage 3.
type WorkoutEstimator interface {
	Estimate(ctx context.Context, entry models.ExerciseEntry) workout.Estimate
}

// Service orchestrates extraction, per-item resolution and assembly.
type Service struct {
	extractor Extractor
	nutrition NutritionResolver
	workout   WorkoutEstimator
	logger    *zap.Logger
}

// NewService wires the pipeline.
func NewService(extractor Extractor, nutrition NutritionResolver, workout WorkoutEstimator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		nutrition: nutrition,
		workout:   workout,
		logger:    logger,
	}
}

// ProcessLogInput turns free text into a complete LogEntry. It never fails:
// extraction errors degrade to an empty entry, resolution errors degrade to
// estimates or deterministic defaults inside their stages. Items resolve
// concurrently; output order preserves extraction order.
func (s *Service) ProcessLogInput(ctx context.Context, rawText string, at *time.Time) Result {
	timestamp := time.Now().UTC()
	if at != nil {
		timestamp = at.UTC()
	}

	draft, err := s.extractor.Extract(ctx, rawText)
	if err != nil {
		s.logger.Warn("extraction degraded to empty entry", zap.Error(err))
		return Result{
			Entry:        models.EmptyLogEntry(timestamp),
			Degradations: []Degradation{{Stage: "extraction", Reason: err.Error()}},
		}
	}

	entry := models.LogEntry{
		Exercise:     make([]models.ExerciseEntry, len(draft.Exercise)),
		Food:         make([]models.FoodEntry, len(draft.Food)),
		BodyWeightKg: draft.BodyWeightKg,
		Timestamp:    timestamp,
	}

	// Fan out per item; no item's resolution depends on another's result.
	estimates := make([]workout.Estimate, len(draft.Exercise))
	resolutions := make([]nutrition.Resolution, len(draft.Food))

	var wg sync.WaitGroup
	for i, ex := range draft.Exercise {
		wg.Add(1)
		go func(i int, ex extraction.DraftExercise) {
			defer wg.Done()
			estimates[i] = s.workout.Estimate(ctx, models.ExerciseEntry{
				Name:       ex.Name,
				Sets:       ex.Sets,
				Reps:       ex.Reps,
				WeightKg:   ex.WeightKg,
				DistanceKm: ex.DistanceKm,
				TimeMin:    ex.TimeMin,
			})
		}(i, ex)
	}
	for i, f := range draft.Food {
		wg.Add(1)
		go func(i int, f extraction.DraftFood) {
			defer wg.Done()
			resolutions[i] = s.nutrition.Resolve(ctx, f.Name, f.QuantityG, f.QuantityItems)
		}(i, f)
	}
	wg.Wait()

	var degradations []Degradation

	// Resolution output is authoritative; the draft's inline estimates are
	// a discarded first pass.
	for i, ex := range draft.Exercise {
		est := estimates[i]
		if est.CaloriesBurned < 0 || est.DurationMin <= 0 {
			// Repair: an exercise never leaves assembly with a negative
			// burn or an unresolved duration.
			est = workout.Defaults(ex.TimeMin)
			est.Reason = "incomplete estimate repaired with defaults"
		}
		calories := est.CaloriesBurned
		duration := est.DurationMin
		entry.Exercise[i] = models.ExerciseEntry{
			Name:           ex.Name,
			Sets:           ex.Sets,
			Reps:           ex.Reps,
			WeightKg:       ex.WeightKg,
			DistanceKm:     ex.DistanceKm,
			TimeMin:        &duration,
			CaloriesBurned: &calories,
		}
		if est.Reason != "" {
			degradations = append(degradations, Degradation{Stage: "exercise", Item: ex.Name, Reason: est.Reason})
		}
	}

	for i, f := range draft.Food {
		res := resolutions[i]
		if res.QuantityG <= 0 || res.Facts.HasNegative() || (res.Facts.IsZero() && res.Source != nutrition.SourceDataset) {
			// Repair: a food never leaves assembly without a resolved
			// weight and complete facts.
			res = nutrition.Defaults(f.QuantityG)
			res.Reason = "incomplete resolution repaired with defaults"
		}
		quantity := res.QuantityG
		entry.Food[i] = models.FoodEntry{
			Name:          f.Name,
			QuantityG:     &quantity,
			QuantityItems: f.QuantityItems,
			Nutrition:     res.Facts,
		}
		if res.Degraded() {
			degradations = append(degradations, Degradation{Stage: "nutrition", Item: f.Name, Reason: res.Reason})
		}
	}

	if len(degradations) > 0 {
		s.logger.Info("pipeline completed with degradations",
			zap.Int("count", len(degradations)))
	}

	return Result{Entry: entry, Degradations: degradations}
}
