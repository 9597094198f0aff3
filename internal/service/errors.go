package service

import (
	"errors"
	"fmt"
)

// ErrorKind groups failures by how a caller should react to them
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindNotFound   ErrorKind = "not_found"
	KindUpstream   ErrorKind = "upstream"
	KindInternal   ErrorKind = "internal"
)

// Error carries a stable machine-readable code and a human-readable message.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Withf returns a copy of e with a more specific message
func (e *Error) Withf(format string, args ...interface{}) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Wrap returns a copy of e that records cause
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

var (
	ErrInvalidSettings   = &Error{Kind: KindValidation, Code: "INVALID_SETTINGS", Message: "invalid room settings"}
	ErrInvalidInput      = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}
	ErrLengthMismatch    = &Error{Kind: KindValidation, Code: "LENGTH_MISMATCH", Message: "guess length does not match the word"}
	ErrInvalidWord       = &Error{Kind: KindValidation, Code: "INVALID_WORD", Message: "word not recognized"}
	ErrRoomFull          = &Error{Kind: KindConflict, Code: "ROOM_FULL", Message: "room is full"}
	ErrNotHost           = &Error{Kind: KindConflict, Code: "NOT_HOST", Message: "only the host can do this"}
	ErrGameInProgress    = &Error{Kind: KindConflict, Code: "GAME_IN_PROGRESS", Message: "a game is in progress"}
	ErrWouldEvictPlayers = &Error{Kind: KindConflict, Code: "WOULD_EVICT_PLAYERS", Message: "max players is below the current player count"}
	ErrNotEnoughPlayers  = &Error{Kind: KindConflict, Code: "NOT_ENOUGH_PLAYERS", Message: "at least two players are required"}
	ErrGameNotActive     = &Error{Kind: KindConflict, Code: "GAME_NOT_ACTIVE", Message: "game is not active"}
	ErrNotYourTurn       = &Error{Kind: KindConflict, Code: "NOT_YOUR_TURN", Message: "it is not your turn"}
	ErrNotAPlayer        = &Error{Kind: KindConflict, Code: "NOT_A_PLAYER", Message: "you are not a player in this game"}
	ErrPlayerNotInRoom   = &Error{Kind: KindConflict, Code: "PLAYER_NOT_IN_ROOM", Message: "player is not in this room"}
	ErrRoomNotFound      = &Error{Kind: KindNotFound, Code: "ROOM_NOT_FOUND", Message: "room not found"}
	ErrGameNotFound      = &Error{Kind: KindNotFound, Code: "GAME_NOT_FOUND", Message: "game not found"}
	ErrWordService       = &Error{Kind: KindUpstream, Code: "WORD_SERVICE_UNAVAILABLE", Message: "word service unavailable"}
	ErrInternal          = &Error{Kind: KindInternal, Code: "INTERNAL", Message: "internal error"}
	ErrUnauthorized      = &Error{Kind: KindValidation, Code: "UNAUTHORIZED", Message: "invalid or expired token"}
)

// AsError converts any error into a *Error, treating unknown errors as internal
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}
