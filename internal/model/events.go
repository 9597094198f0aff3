package model

import "time"

// Push event names
const (
	EventPlayerJoined    = "playerJoined"
	EventPlayerLeft      = "playerLeft"
	EventSettingsUpdated = "settingsUpdated"
	EventInvitation      = "invitation"
	EventGameStarted     = "gameStarted"
	EventGuessResult     = "guessResult"
	EventTurnChange      = "turnChange"
	EventRoundComplete   = "roundComplete"
	EventGameOver        = "gameOver"
	EventError           = "error"
)

type PlayerJoinedPayload struct {
	Player         RoomPlayer   `json:"player"`
	Username       string       `json:"username"`
	CurrentPlayers []RoomPlayer `json:"currentPlayers"`
	IsFull         bool         `json:"isFull"`
}

type PlayerLeftPayload struct {
	UserID           string       `json:"userId"`
	Username         string       `json:"username"`
	NewHost          string       `json:"newHost,omitempty"`
	RoomStatus       RoomStatus   `json:"roomStatus"`
	RemainingPlayers []RoomPlayer `json:"remainingPlayers"`
}

type SettingsUpdatedPayload struct {
	Settings  RoomSettings `json:"settings"`
	UpdatedBy string       `json:"updatedBy"`
}

type InvitationPayload struct {
	InvitationID string    `json:"invitationId"`
	RoomID       string    `json:"roomId"`
	RoomCode     string    `json:"roomCode"`
	RoomName     string    `json:"roomName"`
	InviterID    string    `json:"inviterId"`
	InviterName  string    `json:"inviterName"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type GameStartedPayload struct {
	GameID  string       `json:"gameId"`
	Players []GamePlayer `json:"players"`
}

type GuessResultPayload struct {
	Guess        string           `json:"guess"`
	FeedbackGrid []LetterFeedback `json:"feedbackGrid"`
	IsCorrect    bool             `json:"isCorrect"`
	Attempts     int              `json:"attempts"`
	MaxTries     int              `json:"maxTries"`
	UserID       string           `json:"userId"`
}

type TurnChangePayload struct {
	CurrentTurn string `json:"currentTurn"`
	Username    string `json:"username"`
}

// NextRoundInfo is the metadata of the round that starts after a roundComplete
type NextRoundInfo struct {
	RoundNumber int    `json:"roundNumber"`
	WordLength  int    `json:"wordLength"`
	Hint        string `json:"hint"`
	Category    string `json:"category"`
	CurrentTurn string `json:"currentTurn"`
}

type RoundCompletePayload struct {
	RoundNumber  int            `json:"roundNumber"`
	Word         string         `json:"word"`
	Winner       string         `json:"winner,omitempty"`
	Reason       string         `json:"reason"`
	GameComplete bool           `json:"gameComplete"`
	NextRound    *NextRoundInfo `json:"nextRound,omitempty"`
	FinalScores  []PlayerScore  `json:"finalScores,omitempty"`
}

type GameOverPayload struct {
	Winner      string        `json:"winner,omitempty"`
	Status      SessionStatus `json:"status"`
	FinalScores []PlayerScore `json:"finalScores"`
	Timestamp   time.Time     `json:"timestamp"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
