package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nutrilog/nutrilog/internal/domain/models"
)

const (
	foodsCollection     = "foods"
	entriesCollection   = "log_entries"
	summariesCollection = "daily_summaries"

	// candidateLimit bounds how many regex matches are pulled in before
	// similarity ranking picks the single best one.
	candidateLimit = 25
)

// ErrNoMatch signals that the reference dataset holds no food matching the
// requested name. Callers treat it as a soft miss, not a failure.
var ErrNoMatch = errors.New("no matching food record")

// NutritionDataset is the lookup contract of the reference nutrition store.
type NutritionDataset interface {
	FindBestFood(ctx context.Context, name string) (models.FoodRecord, error)
}

// LogStore persists assembled log entries and serves day-level aggregates.
type LogStore interface {
	SaveLogEntry(ctx context.Context, stored models.StoredLogEntry) error
	SummarizeDay(ctx context.Context, userID string, day time.Time) (models.DailySummary, error)
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
	ActiveUserIDs(ctx context.Context, day time.Time) ([]string, error)
}

// Repository implements NutritionDataset and LogStore on MongoDB.
type Repository struct {
	client *mongo.Client
	dbName string
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri string, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{client: client, dbName: dbName}, nil
}

// FindBestFood searches the foods collection with a case-insensitive
// substring match and returns the single highest-similarity record.
func (r *Repository) FindBestFood(ctx context.Context, name string) (models.FoodRecord, error) {
	coll := r.client.Database(r.dbName).Collection(foodsCollection)

	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}
	opts := options.Find().SetLimit(candidateLimit)

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return models.FoodRecord{}, fmt.Errorf("failed to query foods: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []models.FoodRecord
	if err := cursor.All(ctx, &candidates); err != nil {
		return models.FoodRecord{}, fmt.Errorf("failed to decode food records: %w", err)
	}
	if len(candidates) == 0 {
		return models.FoodRecord{}, ErrNoMatch
	}

	best := candidates[0]
	bestScore := Similarity(name, best.Name)
	for _, c := range candidates[1:] {
		if score := Similarity(name, c.Name); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, nil
}

// SaveLogEntry inserts one assembled entry.
func (r *Repository) SaveLogEntry(ctx context.Context, stored models.StoredLogEntry) error {
	coll := r.client.Database(r.dbName).Collection(entriesCollection)
	if _, err := coll.InsertOne(ctx, stored); err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// SummarizeDay aggregates one user's entries for the day containing the
// given instant (UTC day bounds).
func (r *Repository) SummarizeDay(ctx context.Context, userID string, day time.Time) (models.DailySummary, error) {
	start, end := dayBounds(day)
	summary := models.DailySummary{UserID: userID, Date: start.Format("2006-01-02")}

	coll := r.client.Database(r.dbName).Collection(entriesCollection)
	filter := bson.M{
		"user_id":         userID,
		"entry.timestamp": bson.M{"$gte": start, "$lt": end},
	}

	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return summary, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer cursor.Close(ctx)

	var stored []models.StoredLogEntry
	if err := cursor.All(ctx, &stored); err != nil {
		return summary, fmt.Errorf("failed to decode log entries: %w", err)
	}

	for _, s := range stored {
		Accumulate(&summary, s.Entry)
	}
	return summary, nil
}

// SaveDailySummary upserts the summary keyed by user and date.
func (r *Repository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	coll := r.client.Database(r.dbName).Collection(summariesCollection)
	filter := bson.M{"user_id": summary.UserID, "date": summary.Date}
	update := bson.M{"$set": summary}

	if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// ActiveUserIDs lists the users that logged anything on the given day.
func (r *Repository) ActiveUserIDs(ctx context.Context, day time.Time) ([]string, error) {
	start, end := dayBounds(day)
	coll := r.client.Database(r.dbName).Collection(entriesCollection)
	filter := bson.M{"entry.timestamp": bson.M{"$gte": start, "$lt": end}}

	raw, err := coll.Distinct(ctx, "user_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Accumulate folds one entry into a running day summary.
func Accumulate(summary *models.DailySummary, entry models.LogEntry) {
	if len(entry.Food) > 0 {
		summary.MealCount++
	}
	if len(entry.Exercise) > 0 {
		summary.WorkoutCount++
	}
	for _, f := range entry.Food {
		summary.CaloriesIn += f.Nutrition.Calories
		summary.Protein += f.Nutrition.Protein
		summary.Carbs += f.Nutrition.Carbs
		summary.Fat += f.Nutrition.Fat
	}
	for _, ex := range entry.Exercise {
		if ex.CaloriesBurned != nil {
			summary.CaloriesBurned += *ex.CaloriesBurned
		}
		if ex.TimeMin != nil {
			summary.WorkoutTimeMin += *ex.TimeMin
		}
	}
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
