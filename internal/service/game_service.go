package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wordrooms/internal/cache"
	"wordrooms/internal/keyed"
	"wordrooms/internal/model"
	"wordrooms/internal/realtime"
	"wordrooms/internal/repository"
)

const (
	DefaultRoundsToWin  = 3
	DefaultTimePerRound = 60

	maxWordPicks       = 3
	defaultHistorySize = 20
	maxHistorySize     = 100

	statsAttemptTimeout = 10 * time.Second
	statsSweepBatch     = 200
)

// statsBackoff spaces out background re-runs of a failed stats rollup
var statsBackoff = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second, 2 * time.Minute}

// RoomFinisher is told when a room's game reaches a terminal state
type RoomFinisher interface {
	FinishGame(ctx context.Context, roomID, gameID string) error
}

// CreateSessionInput describes a game about to start in a room
type CreateSessionInput struct {
	RoomID       string
	Players      []model.GamePlayer
	Room         model.RoomSettings
	RoundsToWin  int
	TimePerRound int
}

// GuessOutcome is the caller's view of one processed guess
type GuessOutcome struct {
	Guess         string                 `json:"guess"`
	Feedback      []model.LetterFeedback `json:"feedback"`
	IsCorrect     bool                   `json:"isCorrect"`
	Attempts      int                    `json:"attempts"`
	MaxTries      int                    `json:"maxTries"`
	Score         int                    `json:"score,omitempty"`
	RoundComplete bool                   `json:"roundComplete"`
	GameComplete  bool                   `json:"gameComplete"`
	NextTurn      string                 `json:"nextTurn,omitempty"`
}

// GameService runs the turn and round state machine. Every mutation of a game runs on
// that game's serial queue and commits with a version check.
type GameService struct {
	sessions  repository.SessionRepo
	words     WordService
	exec      *keyed.Executor
	publisher realtime.Publisher

	stats       StatsRecorder
	leaderboard cache.LeaderboardCache
	rooms       RoomFinisher
	timer       *TurnTimer

	statsBackoff []time.Duration
	done         chan struct{}
	closeOnce    sync.Once

	now func() time.Time
}

// NewGameService creates a new game service
func NewGameService(
	sessions repository.SessionRepo,
	words WordService,
	exec *keyed.Executor,
	publisher realtime.Publisher,
) *GameService {
	if publisher == nil {
		publisher = realtime.Discard{}
	}
	s := &GameService{
		sessions:  sessions,
		words:     words,
		exec:      exec,
		publisher: publisher,

		statsBackoff: statsBackoff,
		done:         make(chan struct{}),

		now: func() time.Time { return time.Now().UTC() },
	}
	s.timer = NewTurnTimer(s.onRoundTimeout)
	return s
}

func (s *GameService) SetStats(stats StatsRecorder) {
	s.stats = stats
}

func (s *GameService) SetLeaderboard(lb cache.LeaderboardCache) {
	s.leaderboard = lb
}

func (s *GameService) SetRoomFinisher(rooms RoomFinisher) {
	s.rooms = rooms
}

// Close stops every pending round timer and abandons queued stats retries
func (s *GameService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.timer.StopAll()
}

// CreateSession starts round 1 with the first player holding the turn
func (s *GameService) CreateSession(ctx context.Context, in CreateSessionInput) (*model.GameSession, error) {
	if len(in.Players) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	rounds := in.RoundsToWin
	if rounds == 0 {
		rounds = DefaultRoundsToWin
	}
	perRound := in.TimePerRound
	if perRound == 0 {
		perRound = DefaultTimePerRound
	}
	if rounds < MinRounds || rounds > MaxRounds {
		return nil, ErrInvalidSettings.Withf("roundsToWin must be between %d and %d", MinRounds, MaxRounds)
	}
	if perRound < MinTimePerRound || perRound > MaxTimePerRound {
		return nil, ErrInvalidSettings.Withf("timePerRound must be between %d and %d seconds", MinTimePerRound, MaxTimePerRound)
	}

	settings := model.GameSettings{
		MaxPlayers:   in.Room.MaxPlayers,
		RoundsToWin:  rounds,
		TimePerRound: perRound,
		Difficulty:   GameDifficulty(in.Room.Difficulty),
		Language:     in.Room.Language,
		MaxTries:     in.Room.MaxTries,
		WordLength:   in.Room.WordLength,
	}

	word, err := s.pickWord(ctx, settings, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.GameSession{
		GameID:            uuid.New().String(),
		RoomID:            in.RoomID,
		Players:           append([]model.GamePlayer(nil), in.Players...),
		Settings:          settings,
		Status:            model.SessionActive,
		CurrentRound:      1,
		CurrentTurnUserID: in.Players[0].UserID,
		CurrentWord:       newCurrentWord(word, now),
		RoundHistory:      []model.RoundSummary{},
		Version:           1,
		StartedAt:         now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, ErrInternal.Wrap(fmt.Errorf("failed to create game: %w", err))
	}

	s.timer.Arm(session.GameID, session.CurrentRound, roundBudget(session))
	log.Info().Str("game", session.GameID).Str("room", in.RoomID).Int("rounds", rounds).Str("difficulty", settings.Difficulty).Msg("game created")
	return session, nil
}

// SubmitGuess processes one guess from the player holding the turn
func (s *GameService) SubmitGuess(ctx context.Context, gameID, userID, rawGuess string) (*GuessOutcome, error) {
	var outcome *GuessOutcome
	err := s.exec.Do(ctx, realtime.GameChannel(gameID), func(ctx context.Context) error {
		var err error
		outcome, err = s.transition(ctx, gameID, func(g *model.GameSession, out *outbox) (*GuessOutcome, error) {
			return s.applyGuess(ctx, g, userID, rawGuess, out)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// applyGuess mutates g in memory only. Any error leaves nothing committed.
func (s *GameService) applyGuess(ctx context.Context, g *model.GameSession, userID, rawGuess string, out *outbox) (*GuessOutcome, error) {
	if g.Status != model.SessionActive {
		return nil, ErrGameNotActive
	}
	idx := g.PlayerIndex(userID)
	if idx < 0 {
		return nil, ErrNotAPlayer
	}
	if g.CurrentTurnUserID != userID {
		return nil, ErrNotYourTurn
	}

	guess := NormalizeGuess(rawGuess)
	target := g.CurrentWord.Word
	if len([]rune(guess)) != len([]rune(target)) {
		return nil, ErrLengthMismatch.Withf("guess must be %d letters", len([]rune(target)))
	}
	if !isLetters(guess) {
		return nil, ErrInvalidWord.Withf("guess must contain only letters")
	}
	if guess != target {
		ok, err := s.words.IsValidWord(ctx, g.Settings.Language, guess)
		if err != nil {
			return nil, ErrWordService.Wrap(err)
		}
		if !ok {
			return nil, ErrInvalidWord.Withf("%s is not in the word list", guess)
		}
	}

	now := s.now()
	cw := &g.CurrentWord
	cw.Attempts++
	feedback := ComputeFeedback(guess, target)
	cw.Guesses = append(cw.Guesses, model.GuessRecord{UserID: userID, Guess: guess, Feedback: feedback, CreatedAt: now})

	res := &GuessOutcome{
		Guess:     guess,
		Feedback:  feedback,
		IsCorrect: guess == target,
		Attempts:  cw.Attempts,
		MaxTries:  g.Settings.MaxTries,
	}
	out.add(realtime.GameChannel(g.GameID), model.EventGuessResult, model.GuessResultPayload{
		Guess:        guess,
		FeedbackGrid: feedback,
		IsCorrect:    res.IsCorrect,
		Attempts:     cw.Attempts,
		MaxTries:     g.Settings.MaxTries,
		UserID:       userID,
	})

	switch {
	case res.IsCorrect:
		elapsed := now.Sub(cw.StartedAt).Seconds()
		res.Score = ComputeScore(ScoreInput{
			MaxTries:     g.Settings.MaxTries,
			Attempts:     cw.Attempts,
			TimePerRound: g.Settings.TimePerRound,
			GuessTime:    elapsed,
			Difficulty:   g.Settings.Difficulty,
		})
		g.Players[idx].Score += res.Score
		g.Players[idx].WordsGuessed++
		cw.GuessedByUserID = userID
		cw.GuessTimeSeconds = &elapsed
		if err := s.endRound(ctx, g, model.RoundSolved, res.Score, now, out); err != nil {
			return nil, err
		}
		res.RoundComplete = true
	case cw.Attempts >= g.Settings.MaxTries:
		if err := s.endRound(ctx, g, model.RoundMaxTries, 0, now, out); err != nil {
			return nil, err
		}
		res.RoundComplete = true
	default:
		g.CurrentTurnUserID = g.NextTurn(userID)
		out.add(realtime.GameChannel(g.GameID), model.EventTurnChange, model.TurnChangePayload{
			CurrentTurn: g.CurrentTurnUserID,
			Username:    g.Username(g.CurrentTurnUserID),
		})
	}

	res.GameComplete = g.Status.Terminal()
	res.NextTurn = g.CurrentTurnUserID
	return res, nil
}

// AdvanceRound ends round roundNumber without a winner. A stale round number, or a game
// that is no longer active, makes this a no-op.
func (s *GameService) AdvanceRound(ctx context.Context, gameID string, roundNumber int, reason string) error {
	return s.exec.Do(ctx, realtime.GameChannel(gameID), func(ctx context.Context) error {
		_, err := s.transition(ctx, gameID, func(g *model.GameSession, out *outbox) (*GuessOutcome, error) {
			if g.Status != model.SessionActive || g.CurrentRound != roundNumber {
				return nil, errNoChange
			}
			return nil, s.endRound(ctx, g, reason, 0, s.now(), out)
		})
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	})
}

// endRound records the current round and either finishes the game or sets up the next
// round. The next word is fetched before anything is committed, so a word service
// failure leaves the game untouched.
func (s *GameService) endRound(ctx context.Context, g *model.GameSession, reason string, score int, now time.Time, out *outbox) error {
	cw := g.CurrentWord
	g.RoundHistory = append(g.RoundHistory, model.RoundSummary{
		RoundNumber:      g.CurrentRound,
		Word:             cw.Word,
		WinnerUserID:     cw.GuessedByUserID,
		GuessTimeSeconds: cw.GuessTimeSeconds,
		Attempts:         cw.Attempts,
		Score:            score,
		Reason:           reason,
		EndedAt:          now,
	})

	payload := model.RoundCompletePayload{
		RoundNumber: g.CurrentRound,
		Word:        cw.Word,
		Winner:      cw.GuessedByUserID,
		Reason:      reason,
	}

	if g.CurrentRound >= g.Settings.RoundsToWin {
		finalize(g, model.SessionCompleted, now)
		payload.GameComplete = true
		payload.FinalScores = g.Scores()
		out.add(realtime.GameChannel(g.GameID), model.EventRoundComplete, payload)
		out.add(realtime.GameChannel(g.GameID), model.EventGameOver, model.GameOverPayload{
			Winner:      g.WinnerUserID,
			Status:      g.Status,
			FinalScores: g.Scores(),
			Timestamp:   now,
		})
		return nil
	}

	word, err := s.pickWord(ctx, g.Settings, g.RoundHistory)
	if err != nil {
		return err
	}
	g.CurrentRound++
	g.CurrentWord = newCurrentWord(word, now)
	g.CurrentTurnUserID = g.Players[0].UserID

	payload.NextRound = &model.NextRoundInfo{
		RoundNumber: g.CurrentRound,
		WordLength:  len([]rune(word.Word)),
		Hint:        word.Hint,
		Category:    word.Category,
		CurrentTurn: g.CurrentTurnUserID,
	}
	out.add(realtime.GameChannel(g.GameID), model.EventRoundComplete, payload)
	return nil
}

func finalize(g *model.GameSession, status model.SessionStatus, now time.Time) {
	g.Status = status
	g.CompletedAt = &now
	if status == model.SessionCompleted {
		g.WinnerUserID = DecideWinner(g.Players)
	}
}

// RemovePlayer drops userID from a running game. Fewer than two players abandons it;
// otherwise a turn held by the leaver passes on.
func (s *GameService) RemovePlayer(ctx context.Context, gameID, userID string) error {
	return s.exec.Do(ctx, realtime.GameChannel(gameID), func(ctx context.Context) error {
		_, err := s.transition(ctx, gameID, func(g *model.GameSession, out *outbox) (*GuessOutcome, error) {
			idx := g.PlayerIndex(userID)
			if g.Status.Terminal() || idx < 0 {
				return nil, errNoChange
			}
			now := s.now()
			hadTurn := g.CurrentTurnUserID == userID
			g.Players = append(g.Players[:idx:idx], g.Players[idx+1:]...)

			if len(g.Players) < MinPlayers {
				s.abandon(g, now, out)
				return nil, nil
			}
			if hadTurn {
				g.CurrentTurnUserID = g.Players[idx%len(g.Players)].UserID
				out.add(realtime.GameChannel(g.GameID), model.EventTurnChange, model.TurnChangePayload{
					CurrentTurn: g.CurrentTurnUserID,
					Username:    g.Username(g.CurrentTurnUserID),
				})
			}
			return nil, nil
		})
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	})
}

// Abandon ends a game that can no longer be played
func (s *GameService) Abandon(ctx context.Context, gameID string) error {
	return s.exec.Do(ctx, realtime.GameChannel(gameID), func(ctx context.Context) error {
		_, err := s.transition(ctx, gameID, func(g *model.GameSession, out *outbox) (*GuessOutcome, error) {
			if g.Status.Terminal() {
				return nil, errNoChange
			}
			s.abandon(g, s.now(), out)
			return nil, nil
		})
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	})
}

func (s *GameService) abandon(g *model.GameSession, now time.Time, out *outbox) {
	finalize(g, model.SessionAbandoned, now)
	out.add(realtime.GameChannel(g.GameID), model.EventGameOver, model.GameOverPayload{
		Status:      g.Status,
		FinalScores: g.Scores(),
		Timestamp:   now,
	})
}

// errNoChange aborts a transition without committing
var errNoChange = errors.New("no change")

type mutation func(g *model.GameSession, out *outbox) (*GuessOutcome, error)

// transition loads the game, applies fn and commits with a version check. A conflict
// discards everything fn did and re-runs it against a fresh read. Events and follow-up
// work happen only after a successful commit.
func (s *GameService) transition(ctx context.Context, gameID string, fn mutation) (*GuessOutcome, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		g, err := s.sessions.GetByID(ctx, gameID)
		if err != nil {
			return nil, mapRepoErr(err, ErrGameNotFound)
		}
		before := g.Clone()

		var out outbox
		res, err := fn(g, &out)
		if err != nil {
			return nil, err
		}

		err = s.sessions.Update(ctx, g)
		if errors.Is(err, repository.ErrVersionConflict) {
			log.Debug().Str("game", gameID).Int("attempt", attempt).Msg("game version conflict, retrying")
			continue
		}
		if err != nil {
			return nil, ErrInternal.Wrap(fmt.Errorf("failed to save game: %w", err))
		}

		out.flush(ctx, s.publisher, g.Version)
		s.afterCommit(ctx, before, g)
		return res, nil
	}
	return nil, ErrInternal.Withf("game %s kept changing, giving up", gameID)
}

// afterCommit runs the side effects of a committed transition from before to after
func (s *GameService) afterCommit(ctx context.Context, before, after *model.GameSession) {
	roundEnded := len(after.RoundHistory) > len(before.RoundHistory)

	if roundEnded {
		last := after.RoundHistory[len(after.RoundHistory)-1]
		solved := last.WinnerUserID != ""
		if err := s.words.RecordUsage(ctx, after.Settings.Language, last.Word, solved); err != nil {
			log.Warn().Err(err).Str("word", last.Word).Msg("failed to record word usage")
		}
		if solved {
			s.updateLeaderboard(ctx, after, last.WinnerUserID)
		}
	}

	switch {
	case after.Status.Terminal() && !before.Status.Terminal():
		s.timer.Stop(after.GameID)
		if after.Status == model.SessionCompleted {
			if err := s.RecordStats(ctx, after); err != nil {
				log.Error().Err(err).Str("game", after.GameID).Msg("stats rollup incomplete, retrying in background")
				s.retryStats(after.GameID)
			}
		}
		if s.rooms != nil && after.RoomID != "" {
			if err := s.rooms.FinishGame(ctx, after.RoomID, after.GameID); err != nil {
				log.Error().Err(err).Str("room", after.RoomID).Msg("failed to finish room")
			}
		}
		log.Info().Str("game", after.GameID).Str("status", string(after.Status)).Str("winner", after.WinnerUserID).Msg("game over")
	case roundEnded:
		s.timer.Arm(after.GameID, after.CurrentRound, roundBudget(after))
	}
}

// RecordStats applies the result of a completed game to every participant. Safe to
// call more than once: each (game, user) pair is applied at most once by the store.
func (s *GameService) RecordStats(ctx context.Context, g *model.GameSession) error {
	if s.stats == nil || g.Status != model.SessionCompleted || g.StatsRecorded {
		return nil
	}
	at := s.now()
	if g.CompletedAt != nil {
		at = *g.CompletedAt
	}

	var failed error
	for _, p := range g.Players {
		applied, err := s.stats.RecordResult(ctx, g.GameID, p.UserID, Outcome(g.WinnerUserID, p.UserID), p.Score, at)
		if err != nil {
			failed = err
			log.Warn().Err(err).Str("game", g.GameID).Str("user", p.UserID).Msg("failed to record result")
			continue
		}
		if !applied {
			log.Debug().Str("game", g.GameID).Str("user", p.UserID).Msg("result already recorded")
		}
	}
	if failed != nil {
		return failed
	}

	// mark the rollup done; a lost race here only costs a redundant, idempotent rerun
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := s.sessions.GetByID(ctx, g.GameID)
		if err != nil {
			return err
		}
		if current.StatsRecorded {
			return nil
		}
		current.StatsRecorded = true
		err = s.sessions.Update(ctx, current)
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return nil
}

// retryStats re-runs a failed rollup on the backoff schedule. Whatever is still missing
// after the last attempt is picked up by RecoverStats on the next start.
func (s *GameService) retryStats(gameID string) {
	go func() {
		for i, wait := range s.statsBackoff {
			select {
			case <-s.done:
				return
			case <-time.After(wait):
			}

			ctx, cancel := context.WithTimeout(context.Background(), statsAttemptTimeout)
			err := s.recordStatsFor(ctx, gameID)
			cancel()
			if err == nil {
				log.Info().Str("game", gameID).Int("attempt", i+1).Msg("stats rollup recovered")
				return
			}
			log.Warn().Err(err).Str("game", gameID).Int("attempt", i+1).Msg("stats rollup retry failed")
		}
		log.Error().Str("game", gameID).Msg("stats rollup gave up until next sweep")
	}()
}

func (s *GameService) recordStatsFor(ctx context.Context, gameID string) error {
	g, err := s.sessions.GetByID(ctx, gameID)
	if err != nil {
		return err
	}
	return s.RecordStats(ctx, g)
}

// RecoverStats finishes the rollup of completed games left unrecorded, e.g. by a crash
// or a store outage that outlasted the retries. It returns how many games it completed.
func (s *GameService) RecoverStats(ctx context.Context) (int, error) {
	if s.stats == nil {
		return 0, nil
	}
	pending, err := s.sessions.ListUnrecorded(ctx, statsSweepBatch)
	if err != nil {
		return 0, err
	}

	recovered := 0
	var failed error
	for _, g := range pending {
		if err := s.RecordStats(ctx, g); err != nil {
			failed = err
			log.Warn().Err(err).Str("game", g.GameID).Msg("stats sweep failed")
			continue
		}
		recovered++
	}
	return recovered, failed
}

func (s *GameService) updateLeaderboard(ctx context.Context, g *model.GameSession, userID string) {
	if s.leaderboard == nil {
		return
	}
	idx := g.PlayerIndex(userID)
	if idx < 0 {
		return
	}
	if err := s.leaderboard.UpdateScore(ctx, g.GameID, userID, g.Players[idx].Score); err != nil {
		log.Warn().Err(err).Str("game", g.GameID).Msg("leaderboard update failed")
	}
}

// Leaderboard returns the game's standings, from the cache when available
func (s *GameService) Leaderboard(ctx context.Context, gameID string, limit int) ([]cache.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = MaxPlayers
	}
	if s.leaderboard != nil {
		entries, err := s.leaderboard.GetTop(ctx, gameID, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			log.Warn().Err(err).Str("game", gameID).Msg("leaderboard cache unavailable")
		}
	}

	g, err := s.sessions.GetByID(ctx, gameID)
	if err != nil {
		return nil, mapRepoErr(err, ErrGameNotFound)
	}
	return standings(g.Players, limit), nil
}

// standings ranks players by score; equal scores share a rank
func standings(players []model.GamePlayer, limit int) []cache.LeaderboardEntry {
	sorted := append([]model.GamePlayer(nil), players...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Score > sorted[j-1].Score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := make([]cache.LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		if i >= limit {
			break
		}
		rank := i + 1
		if i > 0 && p.Score == sorted[i-1].Score {
			rank = out[i-1].Rank
		}
		out = append(out, cache.LeaderboardEntry{UserID: p.UserID, Score: p.Score, Rank: rank})
	}
	return out
}

// GameView is a game snapshot safe to show to a player
type GameView struct {
	*model.GameSession
	IsYourTurn bool `json:"isYourTurn"`
}

// GetState returns a snapshot with the target word hidden while the round is running
func (s *GameService) GetState(ctx context.Context, gameID, viewerID string) (*GameView, error) {
	g, err := s.sessions.GetByID(ctx, gameID)
	if err != nil {
		return nil, mapRepoErr(err, ErrGameNotFound)
	}
	if g.PlayerIndex(viewerID) < 0 && !wasPlayer(g, viewerID) {
		return nil, ErrNotAPlayer
	}
	if !g.Status.Terminal() {
		g.CurrentWord.Word = ""
	}
	return &GameView{
		GameSession: g,
		IsYourTurn:  g.Status == model.SessionActive && g.CurrentTurnUserID == viewerID,
	}, nil
}

// wasPlayer covers players who left mid-game and still look at the result
func wasPlayer(g *model.GameSession, userID string) bool {
	for _, r := range g.RoundHistory {
		if r.WinnerUserID == userID {
			return true
		}
	}
	for _, guess := range g.CurrentWord.Guesses {
		if guess.UserID == userID {
			return true
		}
	}
	return false
}

// MatchHistory lists a user's finished games, newest first
func (s *GameService) MatchHistory(ctx context.Context, userID string, limit int) ([]*model.GameSession, error) {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	if limit > maxHistorySize {
		limit = maxHistorySize
	}
	games, err := s.sessions.ListFinishedByPlayer(ctx, userID, limit)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return games, nil
}

// IsPlayer reports whether userID currently plays in gameID
func (s *GameService) IsPlayer(ctx context.Context, gameID, userID string) (bool, error) {
	g, err := s.sessions.GetByID(ctx, gameID)
	if err != nil {
		return false, mapRepoErr(err, ErrGameNotFound)
	}
	return g.PlayerIndex(userID) >= 0 || wasPlayer(g, userID), nil
}

// pickWord asks the word service for a word not yet used in this game
func (s *GameService) pickWord(ctx context.Context, settings model.GameSettings, history []model.RoundSummary) (*model.Word, error) {
	q := model.WordQuery{
		Language:   settings.Language,
		Length:     settings.WordLength,
		Difficulty: settings.Difficulty,
	}
	var word *model.Word
	for i := 0; i < maxWordPicks; i++ {
		w, err := s.words.PickWord(ctx, q)
		if err != nil {
			return nil, ErrWordService.Wrap(err)
		}
		word = w
		if !usedWord(history, w.Word) {
			break
		}
	}
	return word, nil
}

func usedWord(history []model.RoundSummary, word string) bool {
	for _, r := range history {
		if r.Word == word {
			return true
		}
	}
	return false
}

func newCurrentWord(w *model.Word, now time.Time) model.CurrentWord {
	return model.CurrentWord{
		Word:       NormalizeGuess(w.Word),
		Hint:       w.Hint,
		Category:   w.Category,
		Difficulty: w.Difficulty,
		Guesses:    []model.GuessRecord{},
		StartedAt:  now,
	}
}

func roundBudget(g *model.GameSession) time.Duration {
	return time.Duration(g.Settings.TimePerRound) * time.Second
}

// onRoundTimeout ends a round whose time ran out through the same path as max tries
func (s *GameService) onRoundTimeout(gameID string, round int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.AdvanceRound(ctx, gameID, round, model.RoundTimeout); err != nil {
		log.Error().Err(err).Str("game", gameID).Int("round", round).Msg("round timeout failed")
	}
}
