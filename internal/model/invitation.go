package model

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation asks a friend to join a room until ExpiresAt
type Invitation struct {
	InvitationID string           `json:"invitationId" bson:"invitationId"`
	RoomID       string           `json:"roomId" bson:"roomId"`
	RoomCode     string           `json:"roomCode" bson:"roomCode"`
	RoomName     string           `json:"roomName" bson:"roomName"`
	InviterID    string           `json:"inviterId" bson:"inviterId"`
	InviteeID    string           `json:"inviteeId" bson:"inviteeId"`
	Status       InvitationStatus `json:"status" bson:"status"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	ExpiresAt    time.Time        `json:"expiresAt" bson:"expiresAt"`
}

// Notification is a durable inbox record
type Notification struct {
	NotificationID string                 `json:"notificationId" bson:"notificationId"`
	UserID         string                 `json:"userId" bson:"userId"`
	Type           string                 `json:"type" bson:"type"`
	Message        string                 `json:"message" bson:"message"`
	Data           map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Read           bool                   `json:"read" bson:"read"`
	CreatedAt      time.Time              `json:"createdAt" bson:"createdAt"`
}

// InviteResult counts each partition of an invite request
type InviteResult struct {
	Invited        int      `json:"invited"`
	NotFriends     int      `json:"notFriends"`
	AlreadyInRoom  int      `json:"alreadyInRoom"`
	AlreadyInvited int      `json:"alreadyInvited"`
	Failed         int      `json:"failed"`
	Online         int      `json:"online"`
	InvitedIDs     []string `json:"invitedIds"`
}
