package repository

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"wordrooms/internal/model"
)

// In-memory repositories for development and tests. Each one guards its state with a
// mutex so that every method is atomic, matching the guarantees of the Mongo versions.
// Values are copied on the way in and out so callers never share state with the store.

type memoryRoomRepo struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room // keyed by RoomID
	codes map[string]string      // roomCode -> RoomID
}

func NewMemoryRoomRepo() RoomRepo {
	return &memoryRoomRepo{
		rooms: make(map[string]*model.Room),
		codes: make(map[string]string),
	}
}

func (m *memoryRoomRepo) Create(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[room.RoomCode]; ok {
		return ErrDuplicateCode
	}
	m.rooms[room.RoomID] = room.Clone()
	m.codes[room.RoomCode] = room.RoomID
	return nil
}

func (m *memoryRoomRepo) GetByID(ctx context.Context, roomID string) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rooms[roomID]; ok {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *memoryRoomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.codes[code]; ok {
		return m.rooms[id].Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *memoryRoomRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.codes[code]
	return ok, nil
}

func (m *memoryRoomRepo) AddPlayer(ctx context.Context, roomID string, player model.RoomPlayer) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	if r.HasPlayer(player.UserID) || !r.Joinable() || r.IsFull() {
		return nil, classifyJoinRejection(r, player.UserID)
	}
	r.Players = append(r.Players, player)
	r.Version++
	r.LastActivityAt = player.JoinedAt
	if r.IsFull() {
		r.Status = model.RoomFull
	}
	return r.Clone(), nil
}

func (m *memoryRoomRepo) Update(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rooms[room.RoomID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != room.Version {
		return ErrVersionConflict
	}
	room.Version++
	m.rooms[room.RoomID] = room.Clone()
	return nil
}

func (m *memoryRoomRepo) ListOpen(ctx context.Context, offset, limit int) ([]*model.Room, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var open []*model.Room
	for _, r := range m.rooms {
		if r.Status == model.RoomWaiting && r.ExpiresAt.After(now) {
			open = append(open, r.Clone())
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.After(open[j].CreatedAt) })
	total := int64(len(open))
	if offset >= len(open) {
		return []*model.Room{}, total, nil
	}
	end := offset + limit
	if end > len(open) {
		end = len(open)
	}
	return open[offset:end], total, nil
}

type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.GameSession
}

func NewMemorySessionRepo() SessionRepo {
	return &memorySessionRepo{sessions: make(map[string]*model.GameSession)}
}

func (m *memorySessionRepo) Create(ctx context.Context, s *model.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.GameID] = s.Clone()
	return nil
}

func (m *memorySessionRepo) GetByID(ctx context.Context, gameID string) (*model.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[gameID]; ok {
		return s.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *memorySessionRepo) Update(ctx context.Context, s *model.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.GameID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != s.Version {
		return ErrVersionConflict
	}
	s.Version++
	m.sessions[s.GameID] = s.Clone()
	return nil
}

func (m *memorySessionRepo) ListFinishedByPlayer(ctx context.Context, userID string, limit int) ([]*model.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.GameSession
	for _, s := range m.sessions {
		if s.Status.Terminal() && s.PlayerIndex(userID) >= 0 {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return completedAt(out[i]).After(completedAt(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memorySessionRepo) ListUnrecorded(ctx context.Context, limit int) ([]*model.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.GameSession
	for _, s := range m.sessions {
		if s.Status == model.SessionCompleted && !s.StatsRecorded {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return completedAt(out[i]).Before(completedAt(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func completedAt(s *model.GameSession) time.Time {
	if s.CompletedAt == nil {
		return time.Time{}
	}
	return *s.CompletedAt
}

type memoryInvitationRepo struct {
	mu   sync.RWMutex
	invs []model.Invitation
}

func NewMemoryInvitationRepo() InvitationRepo {
	return &memoryInvitationRepo{}
}

func (m *memoryInvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invs = append(m.invs, *inv)
	return nil
}

func (m *memoryInvitationRepo) PendingInvitees(ctx context.Context, roomID string, inviteeIDs []string, now time.Time) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(inviteeIDs))
	for _, id := range inviteeIDs {
		want[id] = true
	}
	out := make(map[string]bool)
	for _, inv := range m.invs {
		if inv.RoomID == roomID && want[inv.InviteeID] && inv.Status == model.InvitationPending && inv.ExpiresAt.After(now) {
			out[inv.InviteeID] = true
		}
	}
	return out, nil
}

func (m *memoryInvitationRepo) ListPending(ctx context.Context, userID string, now time.Time) ([]*model.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Invitation
	for i := len(m.invs) - 1; i >= 0; i-- {
		inv := m.invs[i]
		if inv.InviteeID == userID && inv.Status == model.InvitationPending && inv.ExpiresAt.After(now) {
			out = append(out, &inv)
		}
	}
	return out, nil
}

type memoryNotificationRepo struct {
	mu    sync.RWMutex
	items []model.Notification
}

func NewMemoryNotificationRepo() NotificationRepo {
	return &memoryNotificationRepo{}
}

func (m *memoryNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *n)
	return nil
}

func (m *memoryNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Notification
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.items[i]
		if n.UserID == userID {
			out = append(out, &n)
		}
	}
	return out, nil
}

type memoryStatsRepo struct {
	mu    sync.Mutex
	stats map[string]*model.UserStats
}

func NewMemoryStatsRepo() StatsRepo {
	return &memoryStatsRepo{stats: make(map[string]*model.UserStats)}
}

func (m *memoryStatsRepo) RecordResult(ctx context.Context, gameID, userID string, outcome model.GameOutcome, score int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[userID]
	if !ok {
		s = &model.UserStats{UserID: userID}
		m.stats[userID] = s
	}
	for _, g := range s.AppliedGames {
		if g == gameID {
			return false, nil
		}
	}
	s.Apply(outcome, score)
	s.AppliedGames = append(s.AppliedGames, gameID)
	s.UpdatedAt = at
	return true, nil
}

func (m *memoryStatsRepo) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[userID]; ok {
		c := *s
		c.AppliedGames = append([]string(nil), s.AppliedGames...)
		return &c, nil
	}
	return &model.UserStats{UserID: userID}, nil
}

type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUserRepo() UserRepo {
	return &memoryUserRepo{users: make(map[string]model.User)}
}

func (m *memoryUserRepo) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = *u
	return nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[userID]; ok {
		return &u, nil
	}
	return nil, ErrNotFound
}

func (m *memoryUserRepo) Usernames(ctx context.Context, userIDs []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if u, ok := m.users[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}

type memoryFriendRepo struct {
	mu      sync.RWMutex
	friends map[string]map[string]bool
}

func NewMemoryFriendRepo() FriendRepo {
	return &memoryFriendRepo{friends: make(map[string]map[string]bool)}
}

func (m *memoryFriendRepo) Add(ctx context.Context, f *model.Friendship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.friends[f.UserID] == nil {
		m.friends[f.UserID] = make(map[string]bool)
	}
	m.friends[f.UserID][f.FriendID] = true
	return nil
}

func (m *memoryFriendRepo) FriendsAmong(ctx context.Context, userID string, candidateIDs []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool)
	for _, id := range candidateIDs {
		if m.friends[userID][id] {
			out[id] = true
		}
	}
	return out, nil
}

type memoryWordRepo struct {
	mu    sync.RWMutex
	words []model.Word
	rnd   *rand.Rand
}

func NewMemoryWordRepo(words []model.Word) WordRepo {
	m := &memoryWordRepo{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
	_ = m.InsertMany(context.Background(), words)
	return m
}

func (m *memoryWordRepo) InsertMany(ctx context.Context, words []model.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range words {
		w.Word = strings.ToUpper(w.Word)
		w.Length = len([]rune(w.Word))
		m.words = append(m.words, w)
	}
	return nil
}

func (m *memoryWordRepo) Random(ctx context.Context, q model.WordQuery) (*model.Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []model.Word
	for _, w := range m.words {
		if w.Language == q.Language && w.Length == q.Length && (q.Difficulty == "" || w.Difficulty == q.Difficulty) {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	w := candidates[m.rnd.Intn(len(candidates))]
	return &w, nil
}

func (m *memoryWordRepo) Exists(ctx context.Context, language, word string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	word = strings.ToUpper(word)
	for _, w := range m.words {
		if w.Language == language && w.Word == word {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryWordRepo) RecordUsage(ctx context.Context, language, word string, solved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	word = strings.ToUpper(word)
	for i := range m.words {
		if m.words[i].Language == language && m.words[i].Word == word {
			m.words[i].TimesUsed++
			if solved {
				m.words[i].TimesSolved++
			}
		}
	}
	return nil
}
