package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicateCode   = errors.New("room code already in use")
	ErrRoomFull        = errors.New("room is full")
	ErrNotJoinable     = errors.New("room is not accepting players")
	ErrAlreadyJoined   = errors.New("player already in room")
)

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
