package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
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
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts  = 10
	maxCASAttempts   = 5
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// GameLifecycle is the part of the game service that rooms drive
type GameLifecycle interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*model.GameSession, error)
	RemovePlayer(ctx context.Context, gameID, userID string) error
	Abandon(ctx context.Context, gameID string) error
}

type CreateRoomInput struct {
	Name     string             `json:"name"`
	Settings model.RoomSettings `json:"settings"`
}

type JoinResult struct {
	Room          *model.Room `json:"room"`
	AlreadyJoined bool        `json:"alreadyJoined"`
}

type ExitResult struct {
	Room      *model.Room `json:"room"`
	NewHostID string      `json:"newHostId,omitempty"`
}

type RoomPage struct {
	Rooms []model.RoomSummary `json:"rooms"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int64               `json:"total"`
}

// StartGameInput carries optional match settings; zero values take defaults
type StartGameInput struct {
	RoundsToWin  int `json:"roundsToWin"`
	TimePerRound int `json:"timePerRound"`
}

// RoomService handles room lifecycle operations
type RoomService struct {
	rooms       repository.RoomRepo
	invitations repository.InvitationRepo
	exec        *keyed.Executor
	publisher   realtime.Publisher

	roomCache cache.RoomCache
	presence  cache.PresenceCache
	friends   FriendChecker
	notifier  Notifier
	users     UserDirectory
	games     GameLifecycle

	roomTTL   time.Duration
	inviteTTL time.Duration
	now       func() time.Time
}

// NewRoomService creates a new room service
func NewRoomService(
	rooms repository.RoomRepo,
	invitations repository.InvitationRepo,
	exec *keyed.Executor,
	publisher realtime.Publisher,
	roomTTL, inviteTTL time.Duration,
) *RoomService {
	if publisher == nil {
		publisher = realtime.Discard{}
	}
	return &RoomService{
		rooms:       rooms,
		invitations: invitations,
		exec:        exec,
		publisher:   publisher,
		roomTTL:     roomTTL,
		inviteTTL:   inviteTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetCache wires the Redis code reservation / open-room index and presence tracking.
// Both are optional.
func (s *RoomService) SetCache(rooms cache.RoomCache, presence cache.PresenceCache) {
	s.roomCache = rooms
	s.presence = presence
}

func (s *RoomService) SetSocial(friends FriendChecker, notifier Notifier, users UserDirectory) {
	s.friends = friends
	s.notifier = notifier
	s.users = users
}

func (s *RoomService) SetGames(games GameLifecycle) {
	s.games = games
}

// CreateRoom validates settings, allocates a unique code and stores a waiting room
// with the creator as host.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID string, in CreateRoomInput) (*model.Room, error) {
	if creatorID == "" {
		return nil, ErrInvalidInput.Withf("creator is required")
	}
	settings := WithDefaults(in.Settings)
	if err := ValidateRoomSettings(settings); err != nil {
		return nil, err
	}
	settings.Difficulty = DifficultyLabel(settings.WordLength, settings.MaxTries)

	now := s.now()
	room := &model.Room{
		RoomID:    uuid.New().String(),
		CreatorID: creatorID,
		Settings:  settings,
		Status:    model.RoomWaiting,
		Players: []model.RoomPlayer{
			{UserID: creatorID, JoinedAt: now, IsHost: true},
		},
		Version:        1,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.roomTTL),
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return nil, ErrInternal.Wrap(err)
		}
		if !s.reserveCode(ctx, code, room.RoomID) {
			continue
		}

		room.RoomCode = code
		room.RoomName = cleanRoomName(in.Name)
		if room.RoomName == "" {
			room.RoomName = "Room " + code
		}

		err = s.rooms.Create(ctx, room)
		if errors.Is(err, repository.ErrDuplicateCode) {
			log.Debug().Str("code", code).Msg("room code collided in store, retrying")
			continue
		}
		if err != nil {
			s.releaseCode(ctx, code)
			return nil, ErrInternal.Wrap(fmt.Errorf("failed to create room: %w", err))
		}

		s.indexRoom(ctx, room)
		log.Info().Str("room", room.RoomID).Str("code", code).Str("creator", creatorID).Msg("room created")
		return room, nil
	}

	return nil, ErrInternal.Withf("failed to generate unique room code")
}

// JoinRoom adds userID to the waiting room with the given code. Capacity is enforced
// by the store in a single conditional update.
func (s *RoomService) JoinRoom(ctx context.Context, code, userID string) (*JoinResult, error) {
	code = NormalizeRoomCode(code)
	if userID == "" || !validRoomCode(code) {
		return nil, ErrRoomNotFound
	}

	room, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HasPlayer(userID) {
		return &JoinResult{Room: room, AlreadyJoined: true}, nil
	}
	switch room.Status {
	case model.RoomWaiting:
	case model.RoomFull:
		return nil, ErrRoomFull
	default:
		return nil, ErrRoomNotFound
	}

	var result *JoinResult
	err = s.exec.Do(ctx, realtime.RoomChannel(room.RoomID), func(ctx context.Context) error {
		player := model.RoomPlayer{UserID: userID, JoinedAt: s.now()}
		updated, err := s.rooms.AddPlayer(ctx, room.RoomID, player)
		switch {
		case errors.Is(err, repository.ErrAlreadyJoined):
			current, err := s.rooms.GetByID(ctx, room.RoomID)
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}
			result = &JoinResult{Room: current, AlreadyJoined: true}
			return nil
		case errors.Is(err, repository.ErrRoomFull):
			return ErrRoomFull
		case errors.Is(err, repository.ErrNotJoinable):
			return ErrRoomNotFound
		case err != nil:
			return mapRepoErr(err, ErrRoomNotFound)
		}

		names := lookupNames(ctx, s.users, []string{userID})
		var out outbox
		out.add(realtime.RoomChannel(updated.RoomID), model.EventPlayerJoined, model.PlayerJoinedPayload{
			Player:         player,
			Username:       usernameOf(names, userID),
			CurrentPlayers: updated.Players,
			IsFull:         updated.Status == model.RoomFull,
		})
		out.flush(ctx, s.publisher, updated.Version)
		s.indexRoom(ctx, updated)

		result = &JoinResult{Room: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExitRoom removes userID, promoting the earliest joiner when the host leaves.
// The player list is re-read on every attempt so promotion never uses stale membership.
func (s *RoomService) ExitRoom(ctx context.Context, roomID, userID string) (*ExitResult, error) {
	var result *ExitResult
	var wasInGame bool

	err := s.exec.Do(ctx, realtime.RoomChannel(roomID), func(ctx context.Context) error {
		for attempt := 0; attempt < maxCASAttempts; attempt++ {
			room, err := s.rooms.GetByID(ctx, roomID)
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}
			if room.Status == model.RoomClosed {
				return ErrRoomNotFound
			}
			if !room.HasPlayer(userID) {
				return ErrPlayerNotInRoom
			}

			wasInGame = room.Status == model.RoomInGame
			newHost := RemoveRoomPlayer(room, userID, s.now(), s.roomTTL)

			err = s.rooms.Update(ctx, room)
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}

			names := lookupNames(ctx, s.users, []string{userID})
			var out outbox
			out.add(realtime.RoomChannel(roomID), model.EventPlayerLeft, model.PlayerLeftPayload{
				UserID:           userID,
				Username:         usernameOf(names, userID),
				NewHost:          newHost,
				RoomStatus:       room.Status,
				RemainingPlayers: room.Players,
			})
			out.flush(ctx, s.publisher, room.Version)
			s.indexRoom(ctx, room)

			result = &ExitResult{Room: room, NewHostID: newHost}
			return nil
		}
		return ErrInternal.Withf("room %s kept changing, giving up", roomID)
	})
	if err != nil {
		return nil, err
	}

	if wasInGame && result.Room.ActiveGameID != "" && s.games != nil {
		if err := s.games.RemovePlayer(ctx, result.Room.ActiveGameID, userID); err != nil {
			log.Error().Err(err).Str("game", result.Room.ActiveGameID).Str("user", userID).Msg("failed to remove player from game")
		}
	}

	log.Info().Str("room", roomID).Str("user", userID).Str("status", string(result.Room.Status)).Msg("player left room")
	return result, nil
}

// RemoveRoomPlayer drops userID from room in place and applies the status and host
// rules. It returns the promoted host, if any.
func RemoveRoomPlayer(room *model.Room, userID string, now time.Time, ttl time.Duration) string {
	idx := room.PlayerIndex(userID)
	if idx < 0 {
		return ""
	}
	wasHost := room.Players[idx].IsHost
	room.Players = append(room.Players[:idx:idx], room.Players[idx+1:]...)

	switch {
	case len(room.Players) == 0:
		room.Status = model.RoomClosed
	case room.Status == model.RoomInGame && len(room.Players) < MinPlayers:
		room.Status = model.RoomFinished
	case room.Status == model.RoomFull:
		room.Status = model.RoomWaiting
	}

	newHost := ""
	if wasHost && len(room.Players) > 0 {
		next := 0
		for i, p := range room.Players {
			if p.JoinedAt.Before(room.Players[next].JoinedAt) {
				next = i
			}
		}
		room.Players[next].IsHost = true
		newHost = room.Players[next].UserID
	}

	room.LastActivityAt = now
	room.ExpiresAt = now.Add(ttl)
	return newHost
}

// UpdateSettings applies a host-only settings patch to a room that is not in a game
func (s *RoomService) UpdateSettings(ctx context.Context, roomID, userID string, patch RoomSettingsPatch) (*model.Room, error) {
	var result *model.Room
	err := s.exec.Do(ctx, realtime.RoomChannel(roomID), func(ctx context.Context) error {
		for attempt := 0; attempt < maxCASAttempts; attempt++ {
			room, err := s.rooms.GetByID(ctx, roomID)
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}
			if room.Status == model.RoomClosed {
				return ErrRoomNotFound
			}
			if room.Host() != userID {
				return ErrNotHost
			}
			if room.Status != model.RoomWaiting && room.Status != model.RoomFull {
				return ErrGameInProgress
			}

			settings := patch.Apply(room.Settings)
			if err := ValidateRoomSettings(settings); err != nil {
				return err
			}
			if settings.MaxPlayers < len(room.Players) {
				return ErrWouldEvictPlayers.Withf("room has %d players, cannot lower max players to %d", len(room.Players), settings.MaxPlayers)
			}
			settings.Difficulty = DifficultyLabel(settings.WordLength, settings.MaxTries)

			room.Settings = settings
			if room.IsFull() {
				room.Status = model.RoomFull
			} else {
				room.Status = model.RoomWaiting
			}
			room.LastActivityAt = s.now()
			room.ExpiresAt = room.LastActivityAt.Add(s.roomTTL)

			err = s.rooms.Update(ctx, room)
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}

			var out outbox
			out.add(realtime.RoomChannel(roomID), model.EventSettingsUpdated, model.SettingsUpdatedPayload{
				Settings:  room.Settings,
				UpdatedBy: userID,
			})
			out.flush(ctx, s.publisher, room.Version)
			s.indexRoom(ctx, room)

			result = room
			return nil
		}
		return ErrInternal.Withf("room %s kept changing, giving up", roomID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InviteFriends invites each eligible friend independently; one failed recipient never
// aborts the rest.
func (s *RoomService) InviteFriends(ctx context.Context, roomID, inviterID string, friendIDs []string) (*model.InviteResult, error) {
	candidates := dedupeIDs(friendIDs, inviterID)
	result := &model.InviteResult{InvitedIDs: []string{}}

	err := s.exec.Do(ctx, realtime.RoomChannel(roomID), func(ctx context.Context) error {
		room, err := s.rooms.GetByID(ctx, roomID)
		if err != nil {
			return mapRepoErr(err, ErrRoomNotFound)
		}
		if room.Status == model.RoomClosed {
			return ErrRoomNotFound
		}
		if !room.HasPlayer(inviterID) {
			return ErrPlayerNotInRoom
		}
		if len(candidates) == 0 {
			return nil
		}

		friends := map[string]bool{}
		if s.friends != nil {
			friends, err = s.friends.FriendsAmong(ctx, inviterID, candidates)
			if err != nil {
				return ErrInternal.Wrap(fmt.Errorf("friend lookup: %w", err))
			}
		}

		now := s.now()
		invited, err := s.invitations.PendingInvitees(ctx, roomID, candidates, now)
		if err != nil {
			return ErrInternal.Wrap(fmt.Errorf("pending invitations: %w", err))
		}

		var eligible []string
		for _, id := range candidates {
			switch {
			case !friends[id]:
				result.NotFriends++
			case room.HasPlayer(id):
				result.AlreadyInRoom++
			case invited[id]:
				result.AlreadyInvited++
			default:
				eligible = append(eligible, id)
			}
		}

		inviterName := usernameOf(lookupNames(ctx, s.users, []string{inviterID}), inviterID)
		for _, id := range eligible {
			if err := s.invite(ctx, room, inviterID, inviterName, id, now); err != nil {
				log.Warn().Err(err).Str("room", roomID).Str("invitee", id).Msg("invitation failed")
				result.Failed++
				continue
			}
			result.Invited++
			result.InvitedIDs = append(result.InvitedIDs, id)
			if s.isOnline(ctx, id) {
				result.Online++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RoomService) invite(ctx context.Context, room *model.Room, inviterID, inviterName, inviteeID string, now time.Time) error {
	inv := &model.Invitation{
		InvitationID: uuid.New().String(),
		RoomID:       room.RoomID,
		RoomCode:     room.RoomCode,
		RoomName:     room.RoomName,
		InviterID:    inviterID,
		InviteeID:    inviteeID,
		Status:       model.InvitationPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.inviteTTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return err
	}

	var out outbox
	out.add(realtime.UserChannel(inviteeID), model.EventInvitation, model.InvitationPayload{
		InvitationID: inv.InvitationID,
		RoomID:       inv.RoomID,
		RoomCode:     inv.RoomCode,
		RoomName:     inv.RoomName,
		InviterID:    inviterID,
		InviterName:  inviterName,
		ExpiresAt:    inv.ExpiresAt,
	})
	out.flush(ctx, s.publisher, 0)

	if s.notifier != nil {
		n := &model.Notification{
			UserID:  inviteeID,
			Type:    model.EventInvitation,
			Message: fmt.Sprintf("%s invited you to %s", inviterName, room.RoomName),
			Data: map[string]interface{}{
				"invitationId": inv.InvitationID,
				"roomId":       room.RoomID,
				"roomCode":     room.RoomCode,
			},
			CreatedAt: now,
		}
		// the invitation stands even if the inbox write fails
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Warn().Err(err).Str("invitee", inviteeID).Msg("failed to store invitation notification")
		}
	}
	return nil
}

// StartGame moves a waiting or full room into a game. Host only.
func (s *RoomService) StartGame(ctx context.Context, roomID, userID string, in StartGameInput) (*model.GameSession, error) {
	if s.games == nil {
		return nil, ErrInternal.Withf("games are not available")
	}

	var session *model.GameSession
	var orphan string
	err := s.exec.Do(ctx, realtime.RoomChannel(roomID), func(ctx context.Context) error {
		room, err := s.rooms.GetByID(ctx, roomID)
		if err != nil {
			return mapRepoErr(err, ErrRoomNotFound)
		}
		if err := checkStartable(room, userID); err != nil {
			return err
		}

		ids := make([]string, len(room.Players))
		for i, p := range room.Players {
			ids[i] = p.UserID
		}
		names := lookupNames(ctx, s.users, ids)
		players := make([]model.GamePlayer, len(ids))
		for i, id := range ids {
			players[i] = model.GamePlayer{UserID: id, Username: usernameOf(names, id), IsReady: true}
		}

		session, err = s.games.CreateSession(ctx, CreateSessionInput{
			RoomID:       roomID,
			Players:      players,
			Room:         room.Settings,
			RoundsToWin:  in.RoundsToWin,
			TimePerRound: in.TimePerRound,
		})
		if err != nil {
			return err
		}

		for attempt := 0; attempt < maxCASAttempts; attempt++ {
			if attempt > 0 {
				if room, err = s.rooms.GetByID(ctx, roomID); err != nil {
					break
				}
				if err = checkStartable(room, userID); err != nil {
					break
				}
			}
			room.Status = model.RoomInGame
			room.ActiveGameID = session.GameID
			room.LastActivityAt = s.now()
			room.ExpiresAt = room.LastActivityAt.Add(s.roomTTL)

			err = s.rooms.Update(ctx, room)
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			break
		}
		if err != nil || room.ActiveGameID != session.GameID {
			orphan = session.GameID
			if err == nil {
				err = ErrInternal.Withf("room %s kept changing, giving up", roomID)
			}
			return mapRepoErr(err, ErrRoomNotFound)
		}

		var out outbox
		out.add(realtime.RoomChannel(roomID), model.EventGameStarted, model.GameStartedPayload{
			GameID:  session.GameID,
			Players: session.Players,
		})
		out.flush(ctx, s.publisher, room.Version)
		s.indexRoom(ctx, room)
		return nil
	})
	if orphan != "" {
		// outside the room queue: abandoning a game reports back to the room
		if abandonErr := s.games.Abandon(ctx, orphan); abandonErr != nil {
			log.Error().Err(abandonErr).Str("game", orphan).Msg("failed to abandon orphaned game")
		}
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("room", roomID).Str("game", session.GameID).Int("players", len(session.Players)).Msg("game started")
	return session, nil
}

func checkStartable(room *model.Room, userID string) error {
	switch {
	case room.Status == model.RoomClosed:
		return ErrRoomNotFound
	case room.Host() != userID:
		return ErrNotHost
	case room.Status != model.RoomWaiting && room.Status != model.RoomFull:
		return ErrGameInProgress
	case len(room.Players) < MinPlayers:
		return ErrNotEnoughPlayers
	}
	return nil
}

// FinishGame marks an in-game room finished once its active game has ended
func (s *RoomService) FinishGame(ctx context.Context, roomID, gameID string) error {
	return s.exec.Do(ctx, realtime.RoomChannel(roomID), func(ctx context.Context) error {
		for attempt := 0; attempt < maxCASAttempts; attempt++ {
			room, err := s.rooms.GetByID(ctx, roomID)
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}
			if room.Status != model.RoomInGame || room.ActiveGameID != gameID {
				return nil
			}
			room.Status = model.RoomFinished
			room.LastActivityAt = s.now()
			room.ExpiresAt = room.LastActivityAt.Add(s.roomTTL)

			err = s.rooms.Update(ctx, room)
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return mapRepoErr(err, ErrRoomNotFound)
			}
			log.Info().Str("room", roomID).Str("game", gameID).Msg("room finished")
			return nil
		}
		return ErrInternal.Withf("room %s kept changing, giving up", roomID)
	})
}

func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, mapRepoErr(err, ErrRoomNotFound)
	}
	if room.Status == model.RoomClosed {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*model.Room, error) {
	code = NormalizeRoomCode(code)
	if !validRoomCode(code) {
		return nil, ErrRoomNotFound
	}
	room, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.Status == model.RoomClosed {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// ListOpenRooms pages through waiting rooms, newest first. page is 1-based.
func (s *RoomService) ListOpenRooms(ctx context.Context, page, limit int) (*RoomPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := (page - 1) * limit

	if s.roomCache != nil {
		rooms, total, err := s.roomCache.ListOpen(ctx, offset, limit)
		if err == nil {
			return &RoomPage{Rooms: rooms, Page: page, Limit: limit, Total: total}, nil
		}
		log.Warn().Err(err).Msg("open room index unavailable, reading store")
	}

	rooms, total, err := s.rooms.ListOpen(ctx, offset, limit)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	out := make([]model.RoomSummary, len(rooms))
	for i, r := range rooms {
		out[i] = r.Summary()
	}
	return &RoomPage{Rooms: out, Page: page, Limit: limit, Total: total}, nil
}

// IsMember reports whether userID belongs to roomID
func (s *RoomService) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.HasPlayer(userID), nil
}

func (s *RoomService) findByCode(ctx context.Context, code string) (*model.Room, error) {
	if s.roomCache != nil {
		if id, err := s.roomCache.LookupCode(ctx, code); err == nil && id != "" {
			if room, err := s.rooms.GetByID(ctx, id); err == nil && room.RoomCode == code {
				return room, nil
			}
		}
	}
	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, mapRepoErr(err, ErrRoomNotFound)
	}
	return room, nil
}

// reserveCode claims code in Redis. Without a cache, or when Redis fails, the store's
// unique index is the only guard.
func (s *RoomService) reserveCode(ctx context.Context, code, roomID string) bool {
	if s.roomCache == nil {
		return true
	}
	ok, err := s.roomCache.ReserveCode(ctx, code, roomID)
	if err != nil {
		log.Warn().Err(err).Msg("room code reservation unavailable")
		return true
	}
	return ok
}

func (s *RoomService) releaseCode(ctx context.Context, code string) {
	if s.roomCache == nil {
		return
	}
	if err := s.roomCache.ReleaseCode(ctx, code); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("failed to release room code")
	}
}

// indexRoom keeps the open-room index in step with the room's status
func (s *RoomService) indexRoom(ctx context.Context, room *model.Room) {
	if s.roomCache == nil {
		return
	}
	var err error
	if room.Status == model.RoomWaiting {
		err = s.roomCache.IndexOpen(ctx, room.Summary())
	} else {
		err = s.roomCache.RemoveOpen(ctx, room.RoomID)
	}
	if err != nil {
		log.Warn().Err(err).Str("room", room.RoomID).Msg("open room index update failed")
	}
}

func (s *RoomService) isOnline(ctx context.Context, userID string) bool {
	if s.presence == nil {
		return false
	}
	online, err := s.presence.IsOnline(ctx, userID)
	return err == nil && online
}

// generateRoomCode creates a 6-char code from an alphabet without look-alike characters
func generateRoomCode() (string, error) {
	b := make([]byte, roomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(code), nil
}

// mapRepoErr converts store errors; notFound is used for repository.ErrNotFound
func mapRepoErr(err error, notFound *Error) error {
	var svcErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return ErrInternal.Wrap(err)
	}
}
