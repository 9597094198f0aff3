package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the uniqueness and TTL indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"rooms": {
			{Keys: bson.D{{Key: "roomId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "roomCode", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		"game_sessions": {
			{Keys: bson.D{{Key: "gameId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "players.userId", Value: 1}, {Key: "completedAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "statsRecorded", Value: 1}, {Key: "completedAt", Value: 1}}},
		},
		"invitations": {
			{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "inviteeId", Value: 1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		"notifications": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"user_stats": {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"users": {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"friendships": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "friendId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"words": {
			{Keys: bson.D{{Key: "language", Value: 1}, {Key: "word", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "language", Value: 1}, {Key: "length", Value: 1}, {Key: "difficulty", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
