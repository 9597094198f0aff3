package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordrooms/internal/cache"
	"wordrooms/internal/model"
	"wordrooms/internal/realtime"
)

func TestCreateRoom_Defaults(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.rooms.CreateRoom(context.Background(), "alice", CreateRoomInput{})
	require.NoError(t, err)

	assert.Len(t, room.RoomCode, 6)
	for _, r := range room.RoomCode {
		assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected code char %q", r)
	}
	assert.Equal(t, model.RoomWaiting, room.Status)
	assert.Equal(t, "alice", room.Host())
	assert.Equal(t, 5, room.Settings.WordLength)
	assert.Equal(t, 2, room.Settings.MaxPlayers)
	assert.Equal(t, 6, room.Settings.MaxTries)
	assert.Equal(t, "en", room.Settings.Language)
	assert.Equal(t, model.DifficultyEasy, room.Settings.Difficulty)
	assert.Equal(t, "Room "+room.RoomCode, room.RoomName)
	assert.True(t, env.clock.Now().Add(time.Hour).Equal(room.ExpiresAt))
}

func TestCreateRoom_InvalidSettings(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rooms.CreateRoom(context.Background(), "alice", CreateRoomInput{
		Settings: model.RoomSettings{WordLength: 9},
	})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestJoinRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 3}, "alice")

	res, err := env.rooms.JoinRoom(ctx, strings.ToLower(room.RoomCode)+" ", "bob")
	require.NoError(t, err)
	assert.False(t, res.AlreadyJoined)
	assert.Len(t, res.Room.Players, 2)
	assert.Equal(t, model.RoomWaiting, res.Room.Status)

	var joined model.PlayerJoinedPayload
	require.True(t, env.rec.Last(realtime.RoomChannel(room.RoomID), model.EventPlayerJoined, &joined))
	assert.Equal(t, "bob", joined.Player.UserID)
	assert.Equal(t, "@bob", joined.Username)
	assert.Len(t, joined.CurrentPlayers, 2)
	assert.False(t, joined.IsFull)

	again, err := env.rooms.JoinRoom(ctx, room.RoomCode, "bob")
	require.NoError(t, err)
	assert.True(t, again.AlreadyJoined)
	assert.Len(t, again.Room.Players, 2)

	res, err = env.rooms.JoinRoom(ctx, room.RoomCode, "carol")
	require.NoError(t, err)
	assert.Equal(t, model.RoomFull, res.Room.Status)
	require.True(t, env.rec.Last(realtime.RoomChannel(room.RoomID), model.EventPlayerJoined, &joined))
	assert.True(t, joined.IsFull)

	_, err = env.rooms.JoinRoom(ctx, room.RoomCode, "dave")
	assert.ErrorIs(t, err, ErrRoomFull)

	_, err = env.rooms.JoinRoom(ctx, "ZZZZZZ", "dave")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoom_ConcurrentJoinsRespectCapacity(t *testing.T) {
	env := newTestEnv(t)
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 4}, "alice")

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, full := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.rooms.JoinRoom(context.Background(), room.RoomCode, "user-"+string(rune('a'+i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrRoomFull):
				full++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, successes)
	assert.Equal(t, 17, full)
	got, err := env.rooms.GetRoom(context.Background(), room.RoomID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 4)
	assert.Equal(t, model.RoomFull, got.Status)
}

func TestExitRoom_PromotesEarliestJoiner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 4}, "alice", "bob", "carol")

	res, err := env.rooms.ExitRoom(ctx, room.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", res.NewHostID)
	assert.Equal(t, "bob", res.Room.Host())
	assert.Len(t, res.Room.Players, 2)

	var left model.PlayerLeftPayload
	require.True(t, env.rec.Last(realtime.RoomChannel(room.RoomID), model.EventPlayerLeft, &left))
	assert.Equal(t, "alice", left.UserID)
	assert.Equal(t, "bob", left.NewHost)
	assert.Equal(t, model.RoomWaiting, left.RoomStatus)
	assert.Len(t, left.RemainingPlayers, 2)

	res, err = env.rooms.ExitRoom(ctx, room.RoomID, "carol")
	require.NoError(t, err)
	assert.Empty(t, res.NewHostID)

	res, err = env.rooms.ExitRoom(ctx, room.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoomClosed, res.Room.Status)

	_, err = env.rooms.ExitRoom(ctx, room.RoomID, "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = env.rooms.GetRoom(ctx, room.RoomID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestExitRoom_FullRoomReopens(t *testing.T) {
	env := newTestEnv(t)
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 2}, "alice", "bob")
	require.Equal(t, model.RoomFull, room.Status)

	res, err := env.rooms.ExitRoom(context.Background(), room.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoomWaiting, res.Room.Status)

	_, err = env.rooms.ExitRoom(context.Background(), room.RoomID, "carol")
	assert.ErrorIs(t, err, ErrPlayerNotInRoom)
}

func TestRemoveRoomPlayer_TieKeepsListOrder(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	room := &model.Room{
		Status:   model.RoomFull,
		Settings: model.RoomSettings{MaxPlayers: 3},
		Players: []model.RoomPlayer{
			{UserID: "a", JoinedAt: at, IsHost: true},
			{UserID: "b", JoinedAt: at.Add(time.Second)},
			{UserID: "c", JoinedAt: at.Add(time.Second)},
		},
	}
	newHost := RemoveRoomPlayer(room, "a", at, time.Hour)
	assert.Equal(t, "b", newHost)
	assert.Equal(t, model.RoomWaiting, room.Status)
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 3}, "alice", "bob")
	four, two, seven := 4, 2, 7

	_, err := env.rooms.UpdateSettings(ctx, room.RoomID, "bob", RoomSettingsPatch{MaxTries: &four})
	assert.ErrorIs(t, err, ErrNotHost)

	one := 1
	_, err = env.rooms.UpdateSettings(ctx, room.RoomID, "alice", RoomSettingsPatch{MaxPlayers: &one})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	updated, err := env.rooms.UpdateSettings(ctx, room.RoomID, "alice", RoomSettingsPatch{MaxPlayers: &two, MaxTries: &four, WordLength: &seven})
	require.NoError(t, err)
	assert.Equal(t, model.RoomFull, updated.Status)
	assert.Equal(t, model.DifficultyExpert, updated.Settings.Difficulty)

	var ev model.SettingsUpdatedPayload
	require.True(t, env.rec.Last(realtime.RoomChannel(room.RoomID), model.EventSettingsUpdated, &ev))
	assert.Equal(t, "alice", ev.UpdatedBy)
	assert.Equal(t, 7, ev.Settings.WordLength)

	// bring carol in after re-opening, then try to shrink below three
	three := 3
	_, err = env.rooms.UpdateSettings(ctx, room.RoomID, "alice", RoomSettingsPatch{MaxPlayers: &three})
	require.NoError(t, err)
	_, err = env.rooms.JoinRoom(ctx, room.RoomCode, "carol")
	require.NoError(t, err)
	_, err = env.rooms.UpdateSettings(ctx, room.RoomID, "alice", RoomSettingsPatch{MaxPlayers: &two})
	assert.ErrorIs(t, err, ErrWouldEvictPlayers)
}

func TestUpdateSettings_RejectedDuringGame(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{}, "alice", "bob")

	_, err := env.rooms.StartGame(ctx, room.RoomID, "alice", StartGameInput{})
	require.NoError(t, err)

	four := 4
	_, err = env.rooms.UpdateSettings(ctx, room.RoomID, "alice", RoomSettingsPatch{MaxTries: &four})
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestInviteFriends_Partitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 4}, "alice", "bob")

	for _, f := range []string{"bob", "carol", "dave"} {
		require.NoError(t, env.friends.Add(ctx, &model.Friendship{UserID: "alice", FriendID: f}))
	}
	require.NoError(t, env.invites.Create(ctx, &model.Invitation{
		InvitationID: "old", RoomID: room.RoomID, InviterID: "alice", InviteeID: "dave",
		Status: model.InvitationPending, ExpiresAt: env.clock.Now().Add(time.Minute),
	}))

	res, err := env.rooms.InviteFriends(ctx, room.RoomID, "alice", []string{"bob", "carol", "carol", "dave", "erin", "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Invited)
	assert.Equal(t, 1, res.NotFriends)
	assert.Equal(t, 1, res.AlreadyInRoom)
	assert.Equal(t, 1, res.AlreadyInvited)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []string{"carol"}, res.InvitedIDs)

	var inv model.InvitationPayload
	require.True(t, env.rec.Last(realtime.UserChannel("carol"), model.EventInvitation, &inv))
	assert.Equal(t, room.RoomCode, inv.RoomCode)
	assert.Equal(t, "@alice", inv.InviterName)
	assert.True(t, env.clock.Now().Add(15*time.Minute).Equal(inv.ExpiresAt))

	notes, err := env.notes.ListByUser(ctx, "carol", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.EventInvitation, notes[0].Type)

	// a second request inside the expiry window is a no-op for carol
	res, err = env.rooms.InviteFriends(ctx, room.RoomID, "alice", []string{"carol"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Invited)
	assert.Equal(t, 1, res.AlreadyInvited)
}

func TestInviteFriends_InviterMustBeInRoom(t *testing.T) {
	env := newTestEnv(t)
	room := env.newRoom(t, model.RoomSettings{}, "alice")

	_, err := env.rooms.InviteFriends(context.Background(), room.RoomID, "bob", []string{"carol"})
	assert.ErrorIs(t, err, ErrPlayerNotInRoom)
}

func TestStartGame(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()

	solo := env.newRoom(t, model.RoomSettings{}, "alice")
	_, err := env.rooms.StartGame(ctx, solo.RoomID, "alice", StartGameInput{})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	room := env.newRoom(t, model.RoomSettings{}, "carol", "dave")
	_, err = env.rooms.StartGame(ctx, room.RoomID, "dave", StartGameInput{})
	assert.ErrorIs(t, err, ErrNotHost)

	g, err := env.rooms.StartGame(ctx, room.RoomID, "carol", StartGameInput{RoundsToWin: 1})
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, g.Status)
	assert.Equal(t, "carol", g.CurrentTurnUserID)
	assert.Equal(t, model.GameEasy, g.Settings.Difficulty)

	got, err := env.rooms.GetRoom(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomInGame, got.Status)
	assert.Equal(t, g.GameID, got.ActiveGameID)

	var started model.GameStartedPayload
	require.True(t, env.rec.Last(realtime.RoomChannel(room.RoomID), model.EventGameStarted, &started))
	assert.Equal(t, g.GameID, started.GameID)

	_, err = env.rooms.JoinRoom(ctx, room.RoomCode, "erin")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// one round: the game completes and the room finishes
	_, err = env.games.SubmitGuess(ctx, g.GameID, "carol", "crane")
	require.NoError(t, err)
	got, err = env.rooms.GetRoom(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomFinished, got.Status)
}

func TestExitRoom_DuringGameAbandonsIt(t *testing.T) {
	env := newTestEnv(t)
	env.expectWord("CRANE")
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{}, "alice", "bob")

	g, err := env.rooms.StartGame(ctx, room.RoomID, "alice", StartGameInput{})
	require.NoError(t, err)

	res, err := env.rooms.ExitRoom(ctx, room.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoomFinished, res.Room.Status)

	assert.Equal(t, model.SessionAbandoned, env.game(t, g.GameID).Status)
	var over model.GameOverPayload
	require.True(t, env.rec.Last(realtime.GameChannel(g.GameID), model.EventGameOver, &over))
	assert.Equal(t, model.SessionAbandoned, over.Status)
	assert.Empty(t, over.Winner)
}

func TestEventsCarryCommittedVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.newRoom(t, model.RoomSettings{MaxPlayers: 4}, "alice", "bob", "carol")
	_, err := env.rooms.ExitRoom(ctx, room.RoomID, "carol")
	require.NoError(t, err)

	events := env.rec.Events(realtime.RoomChannel(room.RoomID))
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
	got, err := env.rooms.GetRoom(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, got.Version, events[len(events)-1].Seq)
}

func TestListOpenRooms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.newRoom(t, model.RoomSettings{}, "alice")
	env.clock.Advance(time.Second)
	b := env.newRoom(t, model.RoomSettings{}, "bob")
	env.clock.Advance(time.Second)
	full := env.newRoom(t, model.RoomSettings{}, "carol", "dave")
	require.Equal(t, model.RoomFull, full.Status)

	page, err := env.rooms.ListOpenRooms(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, b.RoomID, page.Rooms[0].RoomID)
	assert.Equal(t, a.RoomID, page.Rooms[1].RoomID)

	page, err = env.rooms.ListOpenRooms(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, a.RoomID, page.Rooms[0].RoomID)
}

func TestRoomService_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t)
	env.rooms.SetCache(cache.NewRoomCache(client, time.Hour), cache.NewPresenceCache(client))
	ctx := context.Background()

	room, err := env.rooms.CreateRoom(ctx, "alice", CreateRoomInput{Name: "  friday night  "})
	require.NoError(t, err)
	assert.Equal(t, "friday night", room.RoomName)
	assert.True(t, mr.Exists("room:code:"+room.RoomCode))

	page, err := env.rooms.ListOpenRooms(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, room.RoomID, page.Rooms[0].RoomID)

	byCode, err := env.rooms.GetRoomByCode(ctx, strings.ToLower(room.RoomCode))
	require.NoError(t, err)
	assert.Equal(t, room.RoomID, byCode.RoomID)

	_, err = env.rooms.JoinRoom(ctx, room.RoomCode, "bob")
	require.NoError(t, err)
	page, err = env.rooms.ListOpenRooms(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Rooms)

	require.NoError(t, env.friends.Add(ctx, &model.Friendship{UserID: "alice", FriendID: "carol"}))
	require.NoError(t, cache.NewPresenceCache(client).Connected(ctx, "carol"))
	res, err := env.rooms.InviteFriends(ctx, room.RoomID, "alice", []string{"carol"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Online)
}

func TestListOpenRooms_CachedRoomExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t)
	env.rooms.roomTTL = 20 * time.Millisecond
	env.rooms.now = func() time.Time { return time.Now().UTC() }
	env.rooms.SetCache(cache.NewRoomCache(client, time.Hour), nil)
	ctx := context.Background()

	_, err := env.rooms.CreateRoom(ctx, "alice", CreateRoomInput{})
	require.NoError(t, err)
	page, err := env.rooms.ListOpenRooms(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)

	time.Sleep(50 * time.Millisecond)
	page, err = env.rooms.ListOpenRooms(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Rooms)
	assert.EqualValues(t, 0, page.Total)
}
