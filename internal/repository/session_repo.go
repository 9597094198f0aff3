package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/model"
)

// SessionRepo stores game sessions. Round history is only ever appended to.
type SessionRepo interface {
	Create(ctx context.Context, session *model.GameSession) error
	GetByID(ctx context.Context, gameID string) (*model.GameSession, error)
	// Update replaces the session if its stored version still equals session.Version.
	Update(ctx context.Context, session *model.GameSession) error
	ListFinishedByPlayer(ctx context.Context, userID string, limit int) ([]*model.GameSession, error)
	// ListUnrecorded returns completed sessions whose stats rollup has not finished, oldest first.
	ListUnrecorded(ctx context.Context, limit int) ([]*model.GameSession, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("game_sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.GameSession) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, gameID string) (*model.GameSession, error) {
	var session model.GameSession
	err := r.collection.FindOne(ctx, bson.M{"gameId": gameID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.GameSession) error {
	expected := session.Version
	session.Version = expected + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"gameId": session.GameID, "version": expected}, session)
	if err != nil {
		session.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		session.Version = expected
		if _, err := r.GetByID(ctx, session.GameID); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *sessionRepo) ListFinishedByPlayer(ctx context.Context, userID string, limit int) ([]*model.GameSession, error) {
	filter := bson.M{
		"players.userId": userID,
		"status":         bson.M{"$in": bson.A{model.SessionCompleted, model.SessionAbandoned}},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "completedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.GameSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListUnrecorded(ctx context.Context, limit int) ([]*model.GameSession, error) {
	filter := bson.M{
		"status":        model.SessionCompleted,
		"statsRecorded": false,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "completedAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.GameSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
