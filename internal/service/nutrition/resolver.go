package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/domain/models"
	"github.com/nutrilog/nutrilog/internal/repository/mongodb"
	"github.com/nutrilog/nutrilog/pkg/clients/openai"
)

const (
	estimateTemperature = 0.2
	lookupTimeout       = 5 * time.Second
	estimateTimeout     = 20 * time.Second

	// defaultQuantityG is the last-resort serving weight when neither the
	// user nor the reference dataset provides one.
	defaultQuantityG = 100
)

// Source tags where a resolution came from, so degradation is observable
// without affecting control flow.
type Source string

const (
	SourceDataset Source = "dataset"
	SourceModel   Source = "model"
	SourceDefault Source = "default"
)

// Resolution is the stage output: always complete, never an error. When the
// reference dataset did not serve the request, Source and Reason say why.
type Resolution struct {
	Facts     models.NutritionFacts
	QuantityG float64
	Source    Source
	Reason    string
}

// Degraded reports whether the authoritative dataset path was not used.
func (r Resolution) Degraded() bool { return r.Source != SourceDataset }

const estimatePrompt = `You are a nutrition expert with access to USDA database knowledge. Provide accurate nutrition information for foods.
Return a JSON object with this exact structure:
{
    "calories": <number>,
    "protein": <number in grams>,
    "carbs": <number in grams>,
    "fat": <number in grams>,
    "estimated_quantity_g": <estimated weight in grams if not provided>
}

Rules:
- Be as accurate as possible based on common nutrition databases (USDA, etc.)
- If quantity is not specified, estimate a typical serving size
- Return realistic values
- All macros should be in grams
- estimated_quantity_g should reflect the total weight of food being analyzed`

// Resolver resolves NutritionFacts for extracted foods. The dataset and the
// completion client are both soft dependencies: either may be nil or failing
// and the resolver still produces a complete result.
type Resolver struct {
	dataset mongodb.NutritionDataset
	client  openai.Client
	logger  *zap.Logger
}

// NewResolver wires the nutrition resolution stage.
func NewResolver(dataset mongodb.NutritionDataset, client openai.Client, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dataset: dataset, client: client, logger: logger}
}

// Resolve returns complete NutritionFacts for the food. Lookup first, model
// estimate on miss or dataset failure, deterministic defaults when both fail.
func (r *Resolver) Resolve(ctx context.Context, name string, quantityG *float64, quantityItems *int) Resolution {
	res, err := r.fromDataset(ctx, name, quantityG)
	if err == nil {
		return res
	}
	reason := err.Error()
	if !errors.Is(err, mongodb.ErrNoMatch) {
		r.logger.Warn("reference dataset lookup failed",
			zap.String("food", name), zap.Error(err))
	}

	res, err = r.fromModel(ctx, name, quantityG, quantityItems)
	if err == nil {
		res.Reason = reason
		return res
	}
	r.logger.Warn("model nutrition estimate failed",
		zap.String("food", name), zap.Error(err))

	res = Defaults(quantityG)
	res.Reason = fmt.Sprintf("%s; %s", reason, err.Error())
	return res
}

func (r *Resolver) fromDataset(ctx context.Context, name string, quantityG *float64) (Resolution, error) {
	if r.dataset == nil {
		return Resolution{}, errors.New("reference dataset not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	record, err := r.dataset.FindBestFood(ctx, name)
	if err != nil {
		return Resolution{}, err
	}

	quantity := float64(defaultQuantityG)
	switch {
	case quantityG != nil:
		quantity = *quantityG
	case record.TypicalServingG > 0:
		quantity = record.TypicalServingG
	}

	multiplier := quantity / 100
	return Resolution{
		Facts: models.NutritionFacts{
			Calories: int(record.CaloriesPer100g * multiplier),
			Protein:  round1(record.ProteinPer100g * multiplier),
			Carbs:    round1(record.CarbsPer100g * multiplier),
			Fat:      round1(record.FatPer100g * multiplier),
		},
		QuantityG: round1(quantity),
		Source:    SourceDataset,
	}, nil
}

func (r *Resolver) fromModel(ctx context.Context, name string, quantityG *float64, quantityItems *int) (Resolution, error) {
	if r.client == nil {
		return Resolution{}, errors.New("completion client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, estimateTimeout)
	defer cancel()

	quantityStr := ""
	switch {
	case quantityG != nil:
		quantityStr = fmt.Sprintf("%gg of ", *quantityG)
	case quantityItems != nil:
		quantityStr = fmt.Sprintf("%d ", *quantityItems)
	}

	raw, err := r.client.Complete(ctx, openai.CompletionRequest{
		System:      estimatePrompt,
		User:        fmt.Sprintf("Provide nutrition information for: %s%s", quantityStr, name),
		Temperature: estimateTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("nutrition estimate call: %w", err)
	}

	var est struct {
		Calories           float64 `json:"calories"`
		Protein            float64 `json:"protein"`
		Carbs              float64 `json:"carbs"`
		Fat                float64 `json:"fat"`
		EstimatedQuantityG float64 `json:"estimated_quantity_g"`
	}
	if err := json.Unmarshal([]byte(raw), &est); err != nil {
		return Resolution{}, fmt.Errorf("malformed nutrition estimate: %w", err)
	}
	if est.Calories < 0 || est.Protein < 0 || est.Carbs < 0 || est.Fat < 0 {
		return Resolution{}, errors.New("malformed nutrition estimate: negative values")
	}

	quantity := float64(defaultQuantityG)
	switch {
	case quantityG != nil:
		quantity = *quantityG
	case est.EstimatedQuantityG > 0:
		quantity = est.EstimatedQuantityG
	}

	return Resolution{
		Facts: models.NutritionFacts{
			Calories: int(est.Calories),
			Protein:  round1(est.Protein),
			Carbs:    round1(est.Carbs),
			Fat:      round1(est.Fat),
		},
		QuantityG: round1(quantity),
		Source:    SourceModel,
	}, nil
}

// Defaults produces the deterministic last-resort estimate from the quantity
// alone: roughly 2 kcal and 0.1/0.2/0.05 g of protein/carbs/fat per gram.
func Defaults(quantityG *float64) Resolution {
	quantity := float64(defaultQuantityG)
	if quantityG != nil {
		quantity = *quantityG
	}
	return Resolution{
		Facts: models.NutritionFacts{
			Calories: int(quantity * 2),
			Protein:  round1(quantity * 0.1),
			Carbs:    round1(quantity * 0.2),
			Fat:      round1(quantity * 0.05),
		},
		QuantityG: round1(quantity),
		Source:    SourceDefault,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
