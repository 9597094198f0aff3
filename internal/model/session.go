package model

import "time"

type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether no further transition is allowed
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// Game difficulty values used by word selection and scoring
const (
	GameEasy   = "easy"
	GameMedium = "medium"
	GameHard   = "hard"
)

// Reasons a round ends
const (
	RoundSolved    = "solved"
	RoundMaxTries  = "max_tries"
	RoundTimeout   = "timeout"
	RoundAbandoned = "abandoned"
)

type GamePlayer struct {
	UserID       string `json:"userId" bson:"userId"`
	Username     string `json:"username" bson:"username"`
	Score        int    `json:"score" bson:"score"`
	WordsGuessed int    `json:"wordsGuessed" bson:"wordsGuessed"`
	IsReady      bool   `json:"isReady" bson:"isReady"`
}

type GameSettings struct {
	MaxPlayers   int    `json:"maxPlayers" bson:"maxPlayers"`
	RoundsToWin  int    `json:"roundsToWin" bson:"roundsToWin"`
	TimePerRound int    `json:"timePerRound" bson:"timePerRound"` // seconds
	Difficulty   string `json:"difficulty" bson:"difficulty"`
	Language     string `json:"language" bson:"language"`
	MaxTries     int    `json:"maxTries" bson:"maxTries"`
	WordLength   int    `json:"wordLength" bson:"wordLength"`
}

// GuessRecord is one submitted guess within the current round
type GuessRecord struct {
	UserID    string           `json:"userId" bson:"userId"`
	Guess     string           `json:"guess" bson:"guess"`
	Feedback  []LetterFeedback `json:"feedback" bson:"feedback"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
}

type CurrentWord struct {
	Word             string        `json:"word" bson:"word"`
	Hint             string        `json:"hint" bson:"hint"`
	Category         string        `json:"category" bson:"category"`
	Difficulty       string        `json:"difficulty" bson:"difficulty"`
	Attempts         int           `json:"attempts" bson:"attempts"`
	Guesses          []GuessRecord `json:"guesses" bson:"guesses"`
	GuessedByUserID  string        `json:"guessedByUserId,omitempty" bson:"guessedByUserId,omitempty"`
	GuessTimeSeconds *float64      `json:"guessTimeSeconds,omitempty" bson:"guessTimeSeconds,omitempty"`
	StartedAt        time.Time     `json:"startedAt" bson:"startedAt"`
}

// RoundSummary is appended to the round history when a round ends
type RoundSummary struct {
	RoundNumber      int       `json:"roundNumber" bson:"roundNumber"`
	Word             string    `json:"word" bson:"word"`
	WinnerUserID     string    `json:"winnerUserId,omitempty" bson:"winnerUserId,omitempty"`
	GuessTimeSeconds *float64  `json:"guessTimeSeconds,omitempty" bson:"guessTimeSeconds,omitempty"`
	Attempts         int       `json:"attempts" bson:"attempts"`
	Score            int       `json:"score,omitempty" bson:"score,omitempty"`
	Reason           string    `json:"reason" bson:"reason"`
	EndedAt          time.Time `json:"endedAt" bson:"endedAt"`
}

// GameSession is the live match aggregate. Version is the optimistic concurrency token.
type GameSession struct {
	GameID            string         `json:"gameId" bson:"gameId"`
	RoomID            string         `json:"roomId" bson:"roomId"`
	Players           []GamePlayer   `json:"players" bson:"players"`
	Settings          GameSettings   `json:"settings" bson:"settings"`
	Status            SessionStatus  `json:"status" bson:"status"`
	CurrentRound      int            `json:"currentRound" bson:"currentRound"`
	CurrentTurnUserID string         `json:"currentTurnUserId" bson:"currentTurnUserId"`
	CurrentWord       CurrentWord    `json:"currentWord" bson:"currentWord"`
	RoundHistory      []RoundSummary `json:"roundHistory" bson:"roundHistory"`
	WinnerUserID      string         `json:"winnerUserId,omitempty" bson:"winnerUserId,omitempty"`
	StatsRecorded     bool           `json:"statsRecorded" bson:"statsRecorded"`
	Version           int64          `json:"version" bson:"version"`
	StartedAt         time.Time      `json:"startedAt" bson:"startedAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

func (g *GameSession) PlayerIndex(userID string) int {
	for i, p := range g.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// NextTurn returns the player after userID in round-robin order
func (g *GameSession) NextTurn(userID string) string {
	if len(g.Players) == 0 {
		return ""
	}
	i := g.PlayerIndex(userID)
	return g.Players[(i+1)%len(g.Players)].UserID
}

func (g *GameSession) Username(userID string) string {
	if i := g.PlayerIndex(userID); i >= 0 {
		return g.Players[i].Username
	}
	return ""
}

// Clone returns a deep copy safe to mutate
func (g *GameSession) Clone() *GameSession {
	c := *g
	c.Players = append([]GamePlayer(nil), g.Players...)
	c.RoundHistory = append([]RoundSummary(nil), g.RoundHistory...)
	c.CurrentWord.Guesses = append([]GuessRecord(nil), g.CurrentWord.Guesses...)
	return &c
}

// PlayerScore is a final standing entry
type PlayerScore struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
	WordsGuessed int    `json:"wordsGuessed"`
}

func (g *GameSession) Scores() []PlayerScore {
	out := make([]PlayerScore, len(g.Players))
	for i, p := range g.Players {
		out[i] = PlayerScore{UserID: p.UserID, Username: p.Username, Score: p.Score, WordsGuessed: p.WordsGuessed}
	}
	return out
}
