package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/domain/models"
	"github.com/nutrilog/nutrilog/pkg/clients/openai"
)

const (
	extractionTemperature = 0.3
	extractionTimeout     = 20 * time.Second
)

// ErrEmptyInput is returned when the user text is blank.
var ErrEmptyInput = errors.New("input text is empty")

// Draft is the raw entity set produced by the extraction stage. Inline
// nutrition and calorie estimates are the model's first pass; the
// resolution stages treat them as a discarded draft and recompute.
type Draft struct {
	Exercise     []DraftExercise
	Food         []DraftFood
	BodyWeightKg *float64
}

// DraftExercise mirrors models.ExerciseEntry plus the inline estimate.
type DraftExercise struct {
	Name           string   `json:"name"`
	Sets           *int     `json:"sets"`
	Reps           *int     `json:"reps"`
	WeightKg       *float64 `json:"weight_kg"`
	DistanceKm     *float64 `json:"distance_km"`
	TimeMin        *float64 `json:"time_min"`
	CaloriesBurned *int     `json:"calories_burned"`
}

// DraftFood mirrors models.FoodEntry plus the inline nutrition estimate.
type DraftFood struct {
	Name          string                 `json:"name"`
	QuantityG     *float64               `json:"quantity_g"`
	QuantityItems *int                   `json:"quantity_items"`
	Nutrition     *models.NutritionFacts `json:"nutrition"`
}

type draftWire struct {
	Exercise     []DraftExercise `json:"exercise"`
	Food         []DraftFood     `json:"food"`
	BodyWeightKg *float64        `json:"body_weight_kg"`
}

// Service turns free text into a structured entity draft.
type Service struct {
	client openai.Client
	logger *zap.Logger
}

// NewService wires the extraction stage.
func NewService(client openai.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// Extract issues one schema-constrained completion call and parses the
// result. Any failure is returned to the caller; the pipeline owns the
// degrade-to-empty policy.
func (s *Service) Extract(ctx context.Context, text string) (Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Draft{}, ErrEmptyInput
	}
	if s.client == nil {
		return Draft{}, errors.New("completion client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	raw, err := s.client.Complete(ctx, openai.CompletionRequest{
		System:      Contract,
		User:        text,
		Temperature: extractionTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("extraction call: %w", err)
	}

	var wire draftWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Draft{}, fmt.Errorf("malformed extraction response: %w", err)
	}

	draft := sanitize(wire)
	s.logger.Debug("extraction completed",
		zap.String("contract", ContractVersion),
		zap.Int("exercises", len(draft.Exercise)),
		zap.Int("foods", len(draft.Food)))

	return draft, nil
}

// sanitize enforces the draft invariants: names are non-empty, numeric
// fields are either valid non-negative values or absent.
func sanitize(wire draftWire) Draft {
	draft := Draft{
		Exercise:     make([]DraftExercise, 0, len(wire.Exercise)),
		Food:         make([]DraftFood, 0, len(wire.Food)),
		BodyWeightKg: nonNegFloat(wire.BodyWeightKg),
	}

	for _, ex := range wire.Exercise {
		ex.Name = strings.TrimSpace(ex.Name)
		if ex.Name == "" {
			continue
		}
		ex.Sets = posInt(ex.Sets)
		ex.Reps = posInt(ex.Reps)
		ex.WeightKg = nonNegFloat(ex.WeightKg)
		ex.DistanceKm = nonNegFloat(ex.DistanceKm)
		ex.TimeMin = nonNegFloat(ex.TimeMin)
		ex.CaloriesBurned = nonNegInt(ex.CaloriesBurned)
		draft.Exercise = append(draft.Exercise, ex)
	}

	for _, f := range wire.Food {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		f.QuantityG = nonNegFloat(f.QuantityG)
		f.QuantityItems = posInt(f.QuantityItems)
		draft.Food = append(draft.Food, f)
	}

	return draft
}

func posInt(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func nonNegInt(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func nonNegFloat(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
