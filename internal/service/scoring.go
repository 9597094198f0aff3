package service

import (
	"math"

	"wordrooms/internal/model"
)

const (
	baseScore    = 100.0
	maxBonusPart = 50.0
)

var difficultyMultipliers = map[string]float64{
	model.GameEasy:   1.0,
	model.GameMedium: 1.5,
	model.GameHard:   2.0,
}

// ScoreInput describes a solved round
type ScoreInput struct {
	MaxTries     int
	Attempts     int
	TimePerRound int     // seconds
	GuessTime    float64 // seconds since the round started
	Difficulty   string
}

// ComputeScore rewards fewer attempts and faster solves, scaled by difficulty.
// Halves round away from zero.
func ComputeScore(in ScoreInput) int {
	var attemptBonus float64
	if in.MaxTries > 0 {
		attemptBonus = math.Max(0, float64(in.MaxTries-in.Attempts+1)/float64(in.MaxTries)*maxBonusPart)
	}

	var timeBonus float64
	if in.TimePerRound > 0 {
		limit := float64(in.TimePerRound)
		timeBonus = math.Max(0, (limit-in.GuessTime)/limit*maxBonusPart)
	}

	mult, ok := difficultyMultipliers[in.Difficulty]
	if !ok {
		mult = difficultyMultipliers[model.GameMedium]
	}
	return int(math.Round((baseScore + attemptBonus + timeBonus) * mult))
}

// DecideWinner returns the player with the strictly highest score, or "" on a tie
func DecideWinner(players []model.GamePlayer) string {
	winner := ""
	best := math.MinInt
	tied := false
	for _, p := range players {
		switch {
		case p.Score > best:
			best = p.Score
			winner = p.UserID
			tied = false
		case p.Score == best:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return winner
}

// Outcome classifies userID's result in a finished game
func Outcome(winnerID, userID string) model.GameOutcome {
	switch winnerID {
	case "":
		return model.OutcomeDraw
	case userID:
		return model.OutcomeWon
	default:
		return model.OutcomeLost
	}
}
