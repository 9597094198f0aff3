package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/model"
)

type InvitationRepo interface {
	Create(ctx context.Context, inv *model.Invitation) error
	// PendingInvitees returns the subset of inviteeIDs holding an unexpired pending
	// invitation to roomID.
	PendingInvitees(ctx context.Context, roomID string, inviteeIDs []string, now time.Time) (map[string]bool, error)
	ListPending(ctx context.Context, userID string, now time.Time) ([]*model.Invitation, error)
}

type invitationRepo struct {
	collection *mongo.Collection
}

func NewInvitationRepo(db *mongo.Database) InvitationRepo {
	return &invitationRepo{
		collection: db.Collection("invitations"),
	}
}

func (r *invitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	_, err := r.collection.InsertOne(ctx, inv)
	return err
}

func (r *invitationRepo) PendingInvitees(ctx context.Context, roomID string, inviteeIDs []string, now time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(inviteeIDs) == 0 {
		return out, nil
	}
	filter := bson.M{
		"roomId":    roomID,
		"inviteeId": bson.M{"$in": inviteeIDs},
		"status":    model.InvitationPending,
		"expiresAt": bson.M{"$gt": now},
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"inviteeId": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			InviteeID string `bson:"inviteeId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.InviteeID] = true
	}
	return out, cursor.Err()
}

func (r *invitationRepo) ListPending(ctx context.Context, userID string, now time.Time) ([]*model.Invitation, error) {
	filter := bson.M{
		"inviteeId": userID,
		"status":    model.InvitationPending,
		"expiresAt": bson.M{"$gt": now},
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var invs []*model.Invitation
	if err := cursor.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}
