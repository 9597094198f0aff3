package model

import "time"

type GameOutcome string

const (
	OutcomeWon  GameOutcome = "won"
	OutcomeLost GameOutcome = "lost"
	OutcomeDraw GameOutcome = "draw"
)

// UserStats is the per-user rollup. AppliedGames guards against double application.
type UserStats struct {
	UserID       string    `json:"userId" bson:"userId"`
	TotalGames   int       `json:"totalGames" bson:"totalGames"`
	Won          int       `json:"won" bson:"won"`
	Lost         int       `json:"lost" bson:"lost"`
	Draw         int       `json:"draw" bson:"draw"`
	WinStreak    int       `json:"winStreak" bson:"winStreak"`
	BestStreak   int       `json:"bestStreak" bson:"bestStreak"`
	TotalScore   int       `json:"totalScore" bson:"totalScore"`
	AppliedGames []string  `json:"-" bson:"appliedGames"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Apply folds one game result into the stats
func (s *UserStats) Apply(outcome GameOutcome, score int) {
	s.TotalGames++
	s.TotalScore += score
	switch outcome {
	case OutcomeWon:
		s.Won++
		s.WinStreak++
		if s.WinStreak > s.BestStreak {
			s.BestStreak = s.WinStreak
		}
	case OutcomeLost:
		s.Lost++
		s.WinStreak = 0
	case OutcomeDraw:
		s.Draw++
		s.WinStreak = 0
	}
}
