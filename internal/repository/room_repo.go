package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/model"
)

// RoomRepo is the durable room store. Every mutation is a single atomic document update.
type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, roomID string) (*model.Room, error)
	GetByCode(ctx context.Context, code string) (*model.Room, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	// AddPlayer appends the player only while the room is waiting, below capacity and
	// does not already contain the user. Status flips to full in the same update.
	AddPlayer(ctx context.Context, roomID string, player model.RoomPlayer) (*model.Room, error)
	// Update replaces the room if its stored version still equals room.Version.
	Update(ctx context.Context, room *model.Room) error
	ListOpen(ctx context.Context, offset, limit int) ([]*model.Room, int64, error)
}

type roomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{
		collection: db.Collection("rooms"),
	}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	_, err := r.collection.InsertOne(ctx, room)
	if isDuplicateKey(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *roomRepo) GetByID(ctx context.Context, roomID string) (*model.Room, error) {
	return r.findOne(ctx, bson.M{"roomId": roomID})
}

func (r *roomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	return r.findOne(ctx, bson.M{"roomCode": code})
}

func (r *roomRepo) findOne(ctx context.Context, filter bson.M) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, filter).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"roomCode": code}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *roomRepo) AddPlayer(ctx context.Context, roomID string, player model.RoomPlayer) (*model.Room, error) {
	filter := bson.M{
		"roomId":         roomID,
		"status":         model.RoomWaiting,
		"players.userId": bson.M{"$ne": player.UserID},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$players"}, "$settings.maxPlayers"},
		},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "players", Value: bson.M{"$concatArrays": bson.A{"$players", bson.A{player}}}},
			{Key: "version", Value: bson.M{"$add": bson.A{"$version", 1}}},
			{Key: "lastActivityAt", Value: player.JoinedAt},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{bson.M{"$size": "$players"}, "$settings.maxPlayers"}},
				model.RoomFull,
				"$status",
			}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("add player: %w", err)
	}

	// The guard rejected the update; re-read to report why.
	current, err := r.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return nil, classifyJoinRejection(current, player.UserID)
}

func classifyJoinRejection(room *model.Room, userID string) error {
	switch {
	case room.HasPlayer(userID):
		return ErrAlreadyJoined
	case !room.Joinable() && room.Status != model.RoomFull:
		return ErrNotJoinable
	default:
		return ErrRoomFull
	}
}

func (r *roomRepo) Update(ctx context.Context, room *model.Room) error {
	expected := room.Version
	room.Version = expected + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"roomId": room.RoomID, "version": expected}, room)
	if err != nil {
		room.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		room.Version = expected
		if _, err := r.GetByID(ctx, room.RoomID); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *roomRepo) ListOpen(ctx context.Context, offset, limit int) ([]*model.Room, int64, error) {
	filter := bson.M{
		"status":    model.RoomWaiting,
		"expiresAt": bson.M{"$gt": time.Now()},
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}
