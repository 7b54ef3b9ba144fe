package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/domain/models"
	"github.com/nutrilog/nutrilog/pkg/clients/openai"
)

const (
	estimateTemperature = 0.2
	estimateTimeout     = 20 * time.Second

	// defaultDurationMin and defaultCaloriesPerMin drive the deterministic
	// fallback: a moderate 30-minute session at ~5 kcal/min.
	defaultDurationMin    = 30.0
	defaultCaloriesPerMin = 5.0
)

const estimatePrompt = `You are a fitness expert. Estimate calories burned for exercises.
Return a JSON object with this exact structure:
{
    "calories_burned": <number>,
    "estimated_duration_min": <estimated duration in minutes if not provided>
}

Rules:
- Assume average adult body weight (~70kg) unless specified
- Be realistic with calorie estimates based on exercise science
- If duration is not specified, estimate typical workout duration for that exercise
- Consider intensity based on sets/reps/weight provided`

// Estimate is the stage output: calories burned plus a resolved duration.
// Always complete; Source records whether the model served the request.
type Estimate struct {
	CaloriesBurned int
	DurationMin    float64
	FromModel      bool
	Reason         string
}

// Estimator resolves calorie burn for extracted exercises via the
// completion service, degrading to deterministic defaults.
type Estimator struct {
	client openai.Client
	logger *zap.Logger
}

// NewEstimator wires the exercise calorie resolution stage.
func NewEstimator(client openai.Client, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{client: client, logger: logger}
}

// Estimate never fails: on any estimation error it falls back to the
// provided duration (or 30 minutes) at 5 kcal per minute.
func (e *Estimator) Estimate(ctx context.Context, entry models.ExerciseEntry) Estimate {
	est, err := e.fromModel(ctx, entry)
	if err == nil {
		return est
	}
	e.logger.Warn("exercise calorie estimate failed",
		zap.String("exercise", entry.Name), zap.Error(err))

	fallback := Defaults(entry.TimeMin)
	fallback.Reason = err.Error()
	return fallback
}

func (e *Estimator) fromModel(ctx context.Context, entry models.ExerciseEntry) (Estimate, error) {
	if e.client == nil {
		return Estimate{}, errors.New("completion client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, estimateTimeout)
	defer cancel()

	raw, err := e.client.Complete(ctx, openai.CompletionRequest{
		System:      estimatePrompt,
		User:        "Estimate calories burned for: " + Describe(entry),
		Temperature: estimateTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return Estimate{}, fmt.Errorf("exercise estimate call: %w", err)
	}

	var est struct {
		CaloriesBurned       float64 `json:"calories_burned"`
		EstimatedDurationMin float64 `json:"estimated_duration_min"`
	}
	if err := json.Unmarshal([]byte(raw), &est); err != nil {
		return Estimate{}, fmt.Errorf("malformed exercise estimate: %w", err)
	}
	if est.CaloriesBurned < 0 {
		return Estimate{}, errors.New("malformed exercise estimate: negative calories")
	}

	duration := est.EstimatedDurationMin
	if entry.TimeMin != nil {
		duration = *entry.TimeMin
	}
	if duration <= 0 {
		duration = defaultDurationMin
	}

	return Estimate{
		CaloriesBurned: int(est.CaloriesBurned),
		DurationMin:    round1(duration),
		FromModel:      true,
	}, nil
}

// Describe builds the natural-language exercise description from whichever
// descriptors are present.
func Describe(entry models.ExerciseEntry) string {
	parts := []string{entry.Name}
	if entry.Sets != nil && entry.Reps != nil {
		parts = append(parts, fmt.Sprintf("%d sets of %d reps", *entry.Sets, *entry.Reps))
	}
	if entry.WeightKg != nil {
		parts = append(parts, fmt.Sprintf("with %gkg", *entry.WeightKg))
	}
	if entry.DistanceKm != nil {
		parts = append(parts, fmt.Sprintf("for %gkm", *entry.DistanceKm))
	}
	if entry.TimeMin != nil {
		parts = append(parts, fmt.Sprintf("for %g minutes", *entry.TimeMin))
	}
	return strings.Join(parts, " ")
}

// Defaults is the deterministic fallback estimate.
func Defaults(timeMin *float64) Estimate {
	duration := defaultDurationMin
	if timeMin != nil {
		duration = *timeMin
	}
	return Estimate{
		CaloriesBurned: int(duration * defaultCaloriesPerMin),
		DurationMin:    round1(duration),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
