package model

import "time"

type User struct {
	UserID    string    `json:"userId" bson:"userId"`
	Username  string    `json:"username" bson:"username"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Friendship is stored once per direction
type Friendship struct {
	UserID    string    `json:"userId" bson:"userId"`
	FriendID  string    `json:"friendId" bson:"friendId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
