package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wordrooms/internal/cache"
	"wordrooms/internal/model"
	"wordrooms/internal/realtime"
)

// classic is a medium game: five letters, six tries
var classic = model.RoomSettings{WordLength: 5, MaxPlayers: 4, MaxTries: 6, Language: "en", Difficulty: model.DifficultyClassic}

func TestSubmitGuess_CorrectGuessScoresAndStartsNextRound(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	g := env.newGame(t, classic, 2, "alice", "bob")

	env.clock.Advance(10 * time.Second)
	out, err := env.games.SubmitGuess(context.Background(), g.GameID, "alice", " crane ")
	require.NoError(t, err)
	assert.True(t, out.IsCorrect)
	assert.Equal(t, 288, out.Score)
	assert.True(t, out.RoundComplete)
	assert.False(t, out.GameComplete)
	assert.Equal(t, "alice", out.NextTurn)

	got := env.game(t, g.GameID)
	assert.Equal(t, 2, got.CurrentRound)
	assert.Equal(t, 288, got.Players[0].Score)
	assert.Equal(t, 1, got.Players[0].WordsGuessed)
	assert.Equal(t, 0, got.CurrentWord.Attempts)
	require.Len(t, got.RoundHistory, 1)
	h := got.RoundHistory[0]
	assert.Equal(t, "CRANE", h.Word)
	assert.Equal(t, "alice", h.WinnerUserID)
	assert.Equal(t, model.RoundSolved, h.Reason)
	assert.Equal(t, 1, h.Attempts)
	require.NotNil(t, h.GuessTimeSeconds)
	assert.InDelta(t, 10.0, *h.GuessTimeSeconds, 0.001)

	ch := realtime.GameChannel(g.GameID)
	assert.Equal(t, []string{model.EventGuessResult, model.EventRoundComplete}, env.rec.Types(ch))
	var rc model.RoundCompletePayload
	require.True(t, env.rec.Last(ch, model.EventRoundComplete, &rc))
	assert.Equal(t, 1, rc.RoundNumber)
	assert.Equal(t, "alice", rc.Winner)
	require.NotNil(t, rc.NextRound)
	assert.Equal(t, 2, rc.NextRound.RoundNumber)
	assert.Equal(t, 5, rc.NextRound.WordLength)
	assert.Equal(t, "alice", rc.NextRound.CurrentTurn)
}

func TestSubmitGuess_TurnRotates(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob", "carol")

	for _, step := range []struct{ player, next string }{
		{"alice", "bob"}, {"bob", "carol"}, {"carol", "alice"},
	} {
		out, err := env.games.SubmitGuess(ctx, g.GameID, step.player, "slate")
		require.NoError(t, err)
		assert.False(t, out.IsCorrect)
		assert.Equal(t, step.next, out.NextTurn)
	}

	_, err := env.games.SubmitGuess(ctx, g.GameID, "bob", "slate")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	ch := realtime.GameChannel(g.GameID)
	var tc model.TurnChangePayload
	require.True(t, env.rec.Last(ch, model.EventTurnChange, &tc))
	assert.Equal(t, "alice", tc.CurrentTurn)
	assert.Equal(t, "@alice", tc.Username)

	var gr model.GuessResultPayload
	require.True(t, env.rec.Last(ch, model.EventGuessResult, &gr))
	assert.Equal(t, "SLATE", gr.Guess)
	assert.Equal(t, "carol", gr.UserID)
	assert.Equal(t, 3, gr.Attempts)
	assert.Equal(t, 6, gr.MaxTries)
	assert.Equal(t, "AACAC", states(gr.FeedbackGrid))
}

func TestSubmitGuess_RejectionsLeaveStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.words.On("IsValidWord", mock.Anything, "en", "XQZVW").Return(false, nil)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob")

	tests := []struct {
		name   string
		player string
		guess  string
		want   error
	}{
		{name: "outsider", player: "carol", guess: "slate", want: ErrNotAPlayer},
		{name: "out of turn", player: "bob", guess: "slate", want: ErrNotYourTurn},
		{name: "too short", player: "alice", guess: "cat", want: ErrLengthMismatch},
		{name: "not a word", player: "alice", guess: "xqzvw", want: ErrInvalidWord},
		{name: "not letters", player: "alice", guess: "cr4ne", want: ErrInvalidWord},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.games.SubmitGuess(ctx, g.GameID, tc.player, tc.guess)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	got := env.game(t, g.GameID)
	assert.Equal(t, g.Version, got.Version)
	assert.Equal(t, 0, got.CurrentWord.Attempts)
	assert.Empty(t, env.rec.Events(realtime.GameChannel(g.GameID)))

	_, err := env.games.SubmitGuess(ctx, "missing", "alice", "slate")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSubmitGuess_MaxTriesEndsRound(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	settings := classic
	settings.MaxTries = 4
	g := env.newGame(t, settings, 2, "alice", "bob")

	var out *GuessOutcome
	var err error
	for i, p := range []string{"alice", "bob", "alice", "bob"} {
		out, err = env.games.SubmitGuess(ctx, g.GameID, p, "slate")
		require.NoError(t, err, "guess %d", i)
	}
	assert.True(t, out.RoundComplete)
	assert.Equal(t, "alice", out.NextTurn)

	got := env.game(t, g.GameID)
	assert.Equal(t, 2, got.CurrentRound)
	require.Len(t, got.RoundHistory, 1)
	assert.Equal(t, model.RoundMaxTries, got.RoundHistory[0].Reason)
	assert.Empty(t, got.RoundHistory[0].WinnerUserID)
	assert.Equal(t, 4, got.RoundHistory[0].Attempts)

	types := env.rec.Types(realtime.GameChannel(g.GameID))
	assert.Equal(t, []string{
		model.EventGuessResult, model.EventTurnChange,
		model.EventGuessResult, model.EventTurnChange,
		model.EventGuessResult, model.EventTurnChange,
		model.EventGuessResult, model.EventRoundComplete,
	}, types)
}

func TestGameCompletion_RecordsStatsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob")

	out, err := env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	require.NoError(t, err)
	assert.True(t, out.GameComplete)

	got := env.game(t, g.GameID)
	assert.Equal(t, model.SessionCompleted, got.Status)
	assert.Equal(t, "alice", got.WinnerUserID)
	assert.NotNil(t, got.CompletedAt)
	assert.True(t, got.StatsRecorded)

	ch := realtime.GameChannel(g.GameID)
	assert.Equal(t, []string{model.EventGuessResult, model.EventRoundComplete, model.EventGameOver}, env.rec.Types(ch))
	var over model.GameOverPayload
	require.True(t, env.rec.Last(ch, model.EventGameOver, &over))
	assert.Equal(t, "alice", over.Winner)
	require.Len(t, over.FinalScores, 2)

	// a retried rollup must not count the game twice
	got.StatsRecorded = false
	require.NoError(t, env.games.RecordStats(ctx, got))

	alice, err := env.stats.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.TotalGames)
	assert.Equal(t, 1, alice.Won)
	assert.Equal(t, 1, alice.WinStreak)
	assert.Equal(t, 1, alice.BestStreak)
	bob, err := env.stats.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.Lost)
	assert.Equal(t, 0, bob.WinStreak)

	_, err = env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	assert.ErrorIs(t, err, ErrGameNotActive)
	env.words.AssertCalled(t, "RecordUsage", mock.Anything, "en", "CRANE", true)
}

// flakyStats fails the first `failures` calls and then defers to the store
type flakyStats struct {
	mu       sync.Mutex
	next     StatsRecorder
	failures int
	calls    int
}

func (f *flakyStats) RecordResult(ctx context.Context, gameID, userID string, outcome model.GameOutcome, score int, at time.Time) (bool, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return false, errors.New("stats store unavailable")
	}
	return f.next.RecordResult(ctx, gameID, userID, outcome, score, at)
}

func (f *flakyStats) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGameCompletion_FailedRollupIsRetried(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	flaky := &flakyStats{next: env.stats, failures: 1}
	env.games.SetStats(flaky)
	env.games.statsBackoff = []time.Duration{50 * time.Millisecond}
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob")

	out, err := env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	require.NoError(t, err)
	require.True(t, out.GameComplete)
	assert.False(t, env.game(t, g.GameID).StatsRecorded)

	assert.Eventually(t, func() bool {
		return env.game(t, g.GameID).StatsRecorded
	}, time.Second, 5*time.Millisecond)

	alice, err := env.stats.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.TotalGames)
	assert.Equal(t, 1, alice.Won)
	bob, err := env.stats.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.TotalGames, "bob was applied on the first pass and must not be counted again")
	assert.Equal(t, 4, flaky.Calls())
}

func TestRecoverStats_SweepsUnrecordedGames(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	env.games.SetStats(&flakyStats{next: env.stats, failures: 100})
	env.games.statsBackoff = nil
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob")

	_, err := env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	require.NoError(t, err)
	require.False(t, env.game(t, g.GameID).StatsRecorded)

	// a fresh process with a healthy store
	env.games.SetStats(env.stats)
	n, err := env.games.RecoverStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, env.game(t, g.GameID).StatsRecorded)

	alice, err := env.stats.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Won)

	n, err = env.games.RecoverStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGameCompletion_DrawWhenNobodyScores(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	settings := classic
	settings.MaxTries = 4
	g := env.newGame(t, settings, 1, "alice", "bob")

	for _, p := range []string{"alice", "bob", "alice", "bob"} {
		_, err := env.games.SubmitGuess(ctx, g.GameID, p, "slate")
		require.NoError(t, err)
	}

	got := env.game(t, g.GameID)
	assert.Equal(t, model.SessionCompleted, got.Status)
	assert.Empty(t, got.WinnerUserID)
	for _, u := range []string{"alice", "bob"} {
		st, err := env.stats.Get(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Draw, u)
	}
}

func TestAdvanceRound_TimeoutAndStaleRound(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 3, "alice", "bob")

	_, err := env.games.SubmitGuess(ctx, g.GameID, "alice", "slate")
	require.NoError(t, err)

	env.games.onRoundTimeout(g.GameID, 1)
	got := env.game(t, g.GameID)
	assert.Equal(t, 2, got.CurrentRound)
	assert.Equal(t, "alice", got.CurrentTurnUserID)
	require.Len(t, got.RoundHistory, 1)
	assert.Equal(t, model.RoundTimeout, got.RoundHistory[0].Reason)
	assert.Equal(t, 1, got.RoundHistory[0].Attempts)

	// a late timer for round 1 changes nothing
	require.NoError(t, env.games.AdvanceRound(ctx, g.GameID, 1, model.RoundTimeout))
	assert.Equal(t, got.Version, env.game(t, g.GameID).Version)

	var rc model.RoundCompletePayload
	require.True(t, env.rec.Last(realtime.GameChannel(g.GameID), model.EventRoundComplete, &rc))
	assert.Equal(t, model.RoundTimeout, rc.Reason)
}

func TestRemovePlayer(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob", "carol")

	require.NoError(t, env.games.RemovePlayer(ctx, g.GameID, "alice"))
	got := env.game(t, g.GameID)
	assert.Equal(t, model.SessionActive, got.Status)
	assert.Equal(t, "bob", got.CurrentTurnUserID)
	var tc model.TurnChangePayload
	require.True(t, env.rec.Last(realtime.GameChannel(g.GameID), model.EventTurnChange, &tc))
	assert.Equal(t, "bob", tc.CurrentTurn)

	require.NoError(t, env.games.RemovePlayer(ctx, g.GameID, "nobody"))
	require.NoError(t, env.games.RemovePlayer(ctx, g.GameID, "carol"))

	got = env.game(t, g.GameID)
	assert.Equal(t, model.SessionAbandoned, got.Status)
	assert.Empty(t, got.WinnerUserID)
	assert.False(t, got.StatsRecorded)
	assert.Equal(t, 0, env.games.timer.Pending())

	_, err := env.games.SubmitGuess(ctx, g.GameID, "bob", "slate")
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestSubmitGuess_SerializedPerGame(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	g := env.newGame(t, classic, 1, "alice", "bob")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, notTurn := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.games.SubmitGuess(context.Background(), g.GameID, "alice", "slate")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrNotYourTurn) {
				notTurn++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, notTurn)
	assert.Equal(t, 1, env.game(t, g.GameID).CurrentWord.Attempts)
}

func TestSubmitGuess_WordServiceFailureCommitsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.words.On("PickWord", mock.Anything, mock.Anything).Return(&model.Word{Word: "CRANE", Language: "en"}, nil).Once()
	env.words.On("PickWord", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	env.words.On("IsValidWord", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	ctx := context.Background()
	g := env.newGame(t, classic, 2, "alice", "bob")

	_, err := env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	assert.ErrorIs(t, err, ErrWordService)

	got := env.game(t, g.GameID)
	assert.Equal(t, g.Version, got.Version)
	assert.Equal(t, 1, got.CurrentRound)
	assert.Equal(t, 0, got.CurrentWord.Attempts)
	assert.Empty(t, got.RoundHistory)
	assert.Equal(t, 0, got.Players[0].Score)
	assert.Empty(t, env.rec.Events(realtime.GameChannel(g.GameID)))
	env.words.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetState_HidesWordUntilGameEnds(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 1, "alice", "bob")

	view, err := env.games.GetState(ctx, g.GameID, "alice")
	require.NoError(t, err)
	assert.Empty(t, view.CurrentWord.Word)
	assert.True(t, view.IsYourTurn)

	_, err = env.games.GetState(ctx, g.GameID, "carol")
	assert.ErrorIs(t, err, ErrNotAPlayer)

	_, err = env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	require.NoError(t, err)
	view, err = env.games.GetState(ctx, g.GameID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "CRANE", view.CurrentWord.Word)
	assert.False(t, view.IsYourTurn)

	history, err := env.games.MatchHistory(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, g.GameID, history[0].GameID)
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	g := env.newGame(t, classic, 2, "alice", "bob")

	// store fallback before any cache is wired
	entries, err := env.games.Leaderboard(ctx, g.GameID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, entries[1].Rank)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	env.games.SetLeaderboard(cache.NewLeaderboardCache(client))

	env.clock.Advance(10 * time.Second)
	_, err = env.games.SubmitGuess(ctx, g.GameID, "alice", "crane")
	require.NoError(t, err)

	entries, err = env.games.Leaderboard(ctx, g.GameID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "alice", entries[0].UserID)
	assert.Equal(t, 288, entries[0].Score)
}

func TestCreateSession_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()

	_, err := env.games.CreateSession(ctx, CreateSessionInput{
		Players: []model.GamePlayer{{UserID: "alice"}},
		Room:    classic,
	})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = env.games.CreateSession(ctx, CreateSessionInput{
		Players:     []model.GamePlayer{{UserID: "alice"}, {UserID: "bob"}},
		Room:        classic,
		RoundsToWin: 11,
	})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	g := env.newGame(t, classic, 0, "alice", "bob")
	assert.Equal(t, DefaultRoundsToWin, g.Settings.RoundsToWin)
	assert.Equal(t, DefaultTimePerRound, g.Settings.TimePerRound)
	assert.Equal(t, model.GameMedium, g.Settings.Difficulty)
	assert.Equal(t, 1, env.games.timer.Pending())
}
