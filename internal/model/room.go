package model

import "time"

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomFull     RoomStatus = "full"
	RoomInGame   RoomStatus = "in-game"
	RoomFinished RoomStatus = "finished"
	RoomClosed   RoomStatus = "closed"
)

// Difficulty labels derived from word length and max tries
const (
	DifficultyBeginner = "Beginner"
	DifficultyEasy     = "Easy"
	DifficultyClassic  = "Classic"
	DifficultyHard     = "Hard"
	DifficultyExpert   = "Expert"
)

type RoomSettings struct {
	WordLength int    `json:"wordLength" bson:"wordLength"`
	MaxPlayers int    `json:"maxPlayers" bson:"maxPlayers"`
	MaxTries   int    `json:"maxTries" bson:"maxTries"`
	Language   string `json:"language" bson:"language"`
	Difficulty string `json:"difficulty" bson:"difficulty"` // derived, never client supplied
}

// RoomPlayer is a member of a room in join order
type RoomPlayer struct {
	UserID   string    `json:"userId" bson:"userId"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
	IsHost   bool      `json:"isHost" bson:"isHost"`
	IsReady  bool      `json:"isReady" bson:"isReady"`
}

// Room is the lobby aggregate. RoomID is the public id; the Mongo _id is never exposed.
type Room struct {
	RoomID         string       `json:"roomId" bson:"roomId"`
	RoomCode       string       `json:"roomCode" bson:"roomCode"`
	RoomName       string       `json:"roomName" bson:"roomName"`
	CreatorID      string       `json:"creatorId" bson:"creatorId"`
	Settings       RoomSettings `json:"settings" bson:"settings"`
	Status         RoomStatus   `json:"status" bson:"status"`
	Players        []RoomPlayer `json:"players" bson:"players"`
	ActiveGameID   string       `json:"activeGameId,omitempty" bson:"activeGameId,omitempty"`
	Version        int64        `json:"version" bson:"version"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
	LastActivityAt time.Time    `json:"lastActivityAt" bson:"lastActivityAt"`
	ExpiresAt      time.Time    `json:"expiresAt" bson:"expiresAt"`
}

// HasPlayer reports whether userID is a member
func (r *Room) HasPlayer(userID string) bool {
	return r.PlayerIndex(userID) >= 0
}

func (r *Room) PlayerIndex(userID string) int {
	for i, p := range r.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// Host returns the current host's user id, or "" for an empty room
func (r *Room) Host() string {
	for _, p := range r.Players {
		if p.IsHost {
			return p.UserID
		}
	}
	return ""
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Settings.MaxPlayers
}

// Joinable reports whether the room still accepts players by code
func (r *Room) Joinable() bool {
	return r.Status == RoomWaiting
}

// Clone returns a deep copy safe to mutate
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]RoomPlayer(nil), r.Players...)
	return &c
}

// RoomSummary is the list view of an open room
type RoomSummary struct {
	RoomID      string       `json:"roomId"`
	RoomCode    string       `json:"roomCode"`
	RoomName    string       `json:"roomName"`
	Settings    RoomSettings `json:"settings"`
	PlayerCount int          `json:"playerCount"`
	HostID      string       `json:"hostId"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		RoomID:      r.RoomID,
		RoomCode:    r.RoomCode,
		RoomName:    r.RoomName,
		Settings:    r.Settings,
		PlayerCount: len(r.Players),
		HostID:      r.Host(),
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}
