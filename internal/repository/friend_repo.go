package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/model"
)

// FriendRepo reads the friend graph owned by the social service
type FriendRepo interface {
	Add(ctx context.Context, f *model.Friendship) error
	// FriendsAmong returns which of candidateIDs are friends of userID.
	FriendsAmong(ctx context.Context, userID string, candidateIDs []string) (map[string]bool, error)
}

type friendRepo struct {
	collection *mongo.Collection
}

func NewFriendRepo(db *mongo.Database) FriendRepo {
	return &friendRepo{
		collection: db.Collection("friendships"),
	}
}

func (r *friendRepo) Add(ctx context.Context, f *model.Friendship) error {
	_, err := r.collection.InsertOne(ctx, f)
	if isDuplicateKey(err) {
		return nil
	}
	return err
}

func (r *friendRepo) FriendsAmong(ctx context.Context, userID string, candidateIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(candidateIDs) == 0 {
		return out, nil
	}
	filter := bson.M{"userId": userID, "friendId": bson.M{"$in": candidateIDs}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"friendId": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var f model.Friendship
		if err := cursor.Decode(&f); err != nil {
			return nil, err
		}
		out[f.FriendID] = true
	}
	return out, cursor.Err()
}
