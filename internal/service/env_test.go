package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wordrooms/internal/keyed"
	"wordrooms/internal/model"
	"wordrooms/internal/realtime"
	"wordrooms/internal/repository"
)

type testEnv struct {
	rooms    *RoomService
	games    *GameService
	rec      *realtime.Recorder
	words    *MockWordService
	clock    *fakeClock
	roomRepo repository.RoomRepo
	sessions repository.SessionRepo
	stats    repository.StatsRepo
	invites  repository.InvitationRepo
	notes    repository.NotificationRepo
	friends  repository.FriendRepo
	users    repository.UserRepo
}

// newTestEnv wires both services over in-memory stores. Every picked word is CRANE
// and every guess is a dictionary word unless a test overrides the mock.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		rec:      realtime.NewRecorder(),
		words:    new(MockWordService),
		clock:    newFakeClock(),
		roomRepo: repository.NewMemoryRoomRepo(),
		sessions: repository.NewMemorySessionRepo(),
		stats:    repository.NewMemoryStatsRepo(),
		invites:  repository.NewMemoryInvitationRepo(),
		notes:    repository.NewMemoryNotificationRepo(),
		friends:  repository.NewMemoryFriendRepo(),
		users:    repository.NewMemoryUserRepo(),
	}
	exec := keyed.NewExecutor(0)

	env.rooms = NewRoomService(env.roomRepo, env.invites, exec, env.rec, time.Hour, 15*time.Minute)
	env.rooms.now = env.clock.Now
	env.rooms.SetSocial(env.friends, NewRepoNotifier(env.notes), env.users)

	env.games = NewGameService(env.sessions, env.words, exec, env.rec)
	env.games.now = env.clock.Now
	env.games.SetStats(env.stats)
	env.games.SetRoomFinisher(env.rooms)
	env.rooms.SetGames(env.games)
	t.Cleanup(env.games.Close)

	for _, u := range []string{"alice", "bob", "carol", "dave", "erin"} {
		require.NoError(t, env.users.Create(context.Background(), &model.User{UserID: u, Username: "@" + u}))
	}
	return env
}

func (env *testEnv) expectWord(word string) {
	env.words.On("PickWord", mock.Anything, mock.Anything).Return(&model.Word{Word: word, Hint: "a bird", Category: "animals", Language: "en"}, nil)
	env.words.On("IsValidWord", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	env.words.On("RecordUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

// newRoom creates a room hosted by host and joins the others in order, one second apart
func (env *testEnv) newRoom(t *testing.T, settings model.RoomSettings, host string, others ...string) *model.Room {
	t.Helper()
	ctx := context.Background()
	room, err := env.rooms.CreateRoom(ctx, host, CreateRoomInput{Settings: settings})
	require.NoError(t, err)
	for _, u := range others {
		env.clock.Advance(time.Second)
		_, err := env.rooms.JoinRoom(ctx, room.RoomCode, u)
		require.NoError(t, err)
	}
	room, err = env.rooms.GetRoom(ctx, room.RoomID)
	require.NoError(t, err)
	return room
}

// newGame creates a session directly, bypassing the room
func (env *testEnv) newGame(t *testing.T, room model.RoomSettings, rounds int, players ...string) *model.GameSession {
	t.Helper()
	gp := make([]model.GamePlayer, len(players))
	for i, p := range players {
		gp[i] = model.GamePlayer{UserID: p, Username: "@" + p}
	}
	g, err := env.games.CreateSession(context.Background(), CreateSessionInput{
		Players:     gp,
		Room:        room,
		RoundsToWin: rounds,
	})
	require.NoError(t, err)
	return g
}

func (env *testEnv) game(t *testing.T, gameID string) *model.GameSession {
	t.Helper()
	g, err := env.sessions.GetByID(context.Background(), gameID)
	require.NoError(t, err)
	return g
}
