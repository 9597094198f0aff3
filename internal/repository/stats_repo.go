package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/model"
)

type StatsRepo interface {
	// RecordResult folds a game result into the user's stats once per gameID.
	// It reports false when the game had already been applied.
	RecordResult(ctx context.Context, gameID, userID string, outcome model.GameOutcome, score int, at time.Time) (bool, error)
	Get(ctx context.Context, userID string) (*model.UserStats, error)
}

type statsRepo struct {
	collection *mongo.Collection
}

func NewStatsRepo(db *mongo.Database) StatsRepo {
	return &statsRepo{
		collection: db.Collection("user_stats"),
	}
}

func ifNull(field string, def interface{}) bson.M {
	return bson.M{"$ifNull": bson.A{field, def}}
}

func incBy(field string, n int) bson.M {
	return bson.M{"$add": bson.A{ifNull(field, 0), n}}
}

func (r *statsRepo) RecordResult(ctx context.Context, gameID, userID string, outcome model.GameOutcome, score int, at time.Time) (bool, error) {
	var won, lost, draw int
	var streak interface{} = 0
	switch outcome {
	case model.OutcomeWon:
		won = 1
		streak = incBy("$winStreak", 1)
	case model.OutcomeLost:
		lost = 1
	case model.OutcomeDraw:
		draw = 1
	}

	// The $ne guard makes the update a no-op for an applied game; the upsert then
	// collides with the unique userId index, which is how a repeat is detected.
	filter := bson.M{"userId": userID, "appliedGames": bson.M{"$ne": gameID}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "userId", Value: userID},
			{Key: "totalGames", Value: incBy("$totalGames", 1)},
			{Key: "won", Value: incBy("$won", won)},
			{Key: "lost", Value: incBy("$lost", lost)},
			{Key: "draw", Value: incBy("$draw", draw)},
			{Key: "totalScore", Value: incBy("$totalScore", score)},
			{Key: "winStreak", Value: streak},
			{Key: "appliedGames", Value: bson.M{"$concatArrays": bson.A{ifNull("$appliedGames", bson.A{}), bson.A{gameID}}}},
			{Key: "updatedAt", Value: at},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "bestStreak", Value: bson.M{"$max": bson.A{ifNull("$bestStreak", 0), "$winStreak"}}},
		}}},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if isDuplicateKey(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *statsRepo) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &model.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
