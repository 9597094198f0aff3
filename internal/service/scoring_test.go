package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wordrooms/internal/model"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want int
	}{
		{
			name: "first try after ten seconds on medium",
			in:   ScoreInput{MaxTries: 6, Attempts: 1, TimePerRound: 60, GuessTime: 10, Difficulty: model.GameMedium},
			want: 288,
		},
		{
			name: "no time bonus at the deadline",
			in:   ScoreInput{MaxTries: 6, Attempts: 1, TimePerRound: 60, GuessTime: 60, Difficulty: model.GameEasy},
			want: 150,
		},
		{
			name: "late guess never goes negative",
			in:   ScoreInput{MaxTries: 6, Attempts: 1, TimePerRound: 60, GuessTime: 120, Difficulty: model.GameHard},
			want: 300,
		},
		{
			name: "instant guess",
			in:   ScoreInput{MaxTries: 6, Attempts: 1, TimePerRound: 60, GuessTime: 0, Difficulty: model.GameEasy},
			want: 200,
		},
		{
			name: "half rounds up",
			in:   ScoreInput{MaxTries: 4, Attempts: 1, TimePerRound: 60, GuessTime: 30, Difficulty: model.GameMedium},
			want: 263,
		},
		{
			name: "unknown difficulty scores as medium",
			in:   ScoreInput{MaxTries: 6, Attempts: 1, TimePerRound: 60, GuessTime: 10, Difficulty: "weird"},
			want: 288,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeScore(tc.in))
		})
	}
}

func TestComputeScore_FewerAttemptsScoreMore(t *testing.T) {
	prev := ComputeScore(ScoreInput{MaxTries: 6, Attempts: 1, TimePerRound: 60, GuessTime: 10, Difficulty: model.GameMedium})
	for attempts := 2; attempts <= 6; attempts++ {
		score := ComputeScore(ScoreInput{MaxTries: 6, Attempts: attempts, TimePerRound: 60, GuessTime: 10, Difficulty: model.GameMedium})
		assert.Less(t, score, prev, "attempts=%d", attempts)
		prev = score
	}
}

func TestDecideWinner(t *testing.T) {
	tests := []struct {
		name    string
		players []model.GamePlayer
		want    string
	}{
		{name: "tie is a draw", players: []model.GamePlayer{{UserID: "p1", Score: 300}, {UserID: "p2", Score: 300}}, want: ""},
		{name: "strict highest wins", players: []model.GamePlayer{{UserID: "p1", Score: 300}, {UserID: "p2", Score: 200}}, want: "p1"},
		{name: "tie below the top does not matter", players: []model.GamePlayer{{UserID: "p1", Score: 100}, {UserID: "p2", Score: 100}, {UserID: "p3", Score: 150}}, want: "p3"},
		{name: "all zero", players: []model.GamePlayer{{UserID: "p1"}, {UserID: "p2"}}, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecideWinner(tc.players))
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, model.OutcomeWon, Outcome("p1", "p1"))
	assert.Equal(t, model.OutcomeLost, Outcome("p1", "p2"))
	assert.Equal(t, model.OutcomeDraw, Outcome("", "p2"))
}
