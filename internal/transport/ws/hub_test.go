package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordrooms/internal/keyed"
	"wordrooms/internal/realtime"
)

func testClient(userID string) *Client {
	return &Client{UserID: userID, send: make(chan []byte, 16)}
}

func registered(t *testing.T, h *Hub, clients ...*Client) {
	t.Helper()
	for _, c := range clients {
		require.NoError(t, h.Register(c))
	}
	require.Eventually(t, func() bool { return h.Registry().Count() == len(clients) }, time.Second, 5*time.Millisecond)
}

func nextEvent(t *testing.T, c *Client) realtime.Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev realtime.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return realtime.Event{}
	}
}

func TestRegistrySubscriptions(t *testing.T) {
	r := NewRegistry()
	a, b := testClient("alice"), testClient("bob")

	assert.False(t, r.Subscribe(a, "room:1"), "unregistered client cannot subscribe")

	assert.True(t, r.Add(a))
	assert.True(t, r.Add(b))
	assert.False(t, r.Add(a), "adding twice is a no-op")

	r.Subscribe(a, "room:1")
	r.Subscribe(b, "room:1")
	r.Subscribe(b, "game:9")
	assert.Len(t, r.Subscribers("room:1"), 2)
	assert.True(t, r.IsSubscribed(b, "game:9"))

	r.Unsubscribe(a, "room:1")
	assert.Len(t, r.Subscribers("room:1"), 1)

	assert.True(t, r.Remove(b))
	assert.False(t, r.Remove(b))
	assert.Empty(t, r.Subscribers("room:1"))
	assert.Empty(t, r.Subscribers("game:9"))
	assert.True(t, r.Online("alice"))
	assert.False(t, r.Online("bob"))
}

func TestRegistryTracksMultipleSocketsPerUser(t *testing.T) {
	r := NewRegistry()
	first, second := testClient("alice"), testClient("alice")

	assert.True(t, r.Add(first))
	assert.False(t, r.Add(second))
	assert.Len(t, r.UserClients("alice"), 2)

	r.Remove(first)
	assert.True(t, r.Online("alice"))
	r.Remove(second)
	assert.False(t, r.Online("alice"))
}

func TestHubDeliversOnlyToSubscribersInOrder(t *testing.T) {
	h := NewHub()
	defer h.Close()

	a, b := testClient("alice"), testClient("bob")
	registered(t, h, a, b)
	h.Registry().Subscribe(a, realtime.RoomChannel("r1"))

	for seq := int64(1); seq <= 3; seq++ {
		ev, err := realtime.NewEvent(realtime.RoomChannel("r1"), "playerJoined", seq, map[string]int64{"n": seq})
		require.NoError(t, err)
		require.NoError(t, h.Publish(context.Background(), ev))
	}

	for seq := int64(1); seq <= 3; seq++ {
		assert.Equal(t, seq, nextEvent(t, a).Seq)
	}
	assert.Empty(t, b.send)
}

func TestHubUserChannelIsImplicit(t *testing.T) {
	h := NewHub()
	defer h.Close()

	bob := testClient("bob")
	registered(t, h, bob)
	require.Eventually(t, func() bool {
		return h.Registry().IsSubscribed(bob, realtime.UserChannel("bob"))
	}, time.Second, 5*time.Millisecond)

	ev, err := realtime.NewEvent(realtime.UserChannel("bob"), "invitation", 0, map[string]string{"roomId": "r1"})
	require.NoError(t, err)
	require.NoError(t, h.Publish(context.Background(), ev))

	got := nextEvent(t, bob)
	assert.Equal(t, "invitation", got.Type)
}

func TestHubPresenceCallbacksAndClose(t *testing.T) {
	h := NewHub()
	connected := make(chan string, 2)
	disconnected := make(chan string, 2)
	h.OnConnect = func(userID string) { connected <- userID }
	h.OnDisconnect = func(userID string) { disconnected <- userID }

	c := testClient("carol")
	require.NoError(t, h.Register(c))
	assert.Equal(t, "carol", <-connected)

	h.Unregister(c)
	assert.Equal(t, "carol", <-disconnected)
	_, open := <-c.send
	assert.False(t, open, "send buffer is closed on unregister")

	h.Close()
	assert.ErrorIs(t, h.Publish(context.Background(), realtime.Event{}), ErrHubClosed)
	assert.ErrorIs(t, h.Register(testClient("dave")), ErrHubClosed)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	defer h.Close()

	slow := &Client{UserID: "slow", send: make(chan []byte, 1)}
	registered(t, h, slow)
	h.Registry().Subscribe(slow, "game:g1")

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Publish(context.Background(), realtime.Event{Type: "turnChange", Channel: "game:g1", Seq: int64(i)}))
	}
	require.Eventually(t, func() bool { return len(h.broadcast) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), nextEvent(t, slow).Seq)
}

func TestLocalPresence(t *testing.T) {
	h := NewHub()
	defer h.Close()
	p := NewLocalPresence(h)

	online, err := p.IsOnline(context.Background(), "erin")
	require.NoError(t, err)
	assert.False(t, online)

	registered(t, h, testClient("erin"))
	online, err = p.IsOnline(context.Background(), "erin")
	require.NoError(t, err)
	assert.True(t, online)
}

// slowPresence records updates; connects take longer than disconnects
type slowPresence struct {
	mu    sync.Mutex
	calls []string
}

func (p *slowPresence) record(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, s)
}

func (p *slowPresence) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *slowPresence) Connected(ctx context.Context, userID string) error {
	time.Sleep(20 * time.Millisecond)
	p.record("+" + userID)
	return nil
}

func (p *slowPresence) Disconnected(ctx context.Context, userID string) error {
	p.record("-" + userID)
	return nil
}

func (p *slowPresence) IsOnline(ctx context.Context, userID string) (bool, error) { return false, nil }

func TestTrackPresenceAppliesInHubOrder(t *testing.T) {
	h := NewHub()
	defer h.Close()
	store := &slowPresence{}
	TrackPresence(h, store, keyed.NewExecutor(0))

	c := testClient("frank")
	require.NoError(t, h.Register(c))
	h.Unregister(c)
	c2 := testClient("frank")
	require.NoError(t, h.Register(c2))

	assert.Eventually(t, func() bool { return len(store.Calls()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"+frank", "-frank", "+frank"}, store.Calls())
}
