package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/cache"
	"wordrooms/internal/keyed"
)

const presenceTimeout = 2 * time.Second

// LocalPresence answers presence from this instance's sockets. It stands in for the
// Redis presence cache on single-instance deployments.
type LocalPresence struct {
	hub *Hub
}

func NewLocalPresence(hub *Hub) *LocalPresence {
	return &LocalPresence{hub: hub}
}

func (p *LocalPresence) Connected(ctx context.Context, userID string) error    { return nil }
func (p *LocalPresence) Disconnected(ctx context.Context, userID string) error { return nil }

func (p *LocalPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	return p.hub.Registry().Online(userID), nil
}

// TrackPresence mirrors the hub's connects and disconnects into a shared presence store.
// Updates run off the hub loop, one user at a time, in the order the hub saw them.
// Must be called before the hub accepts sockets.
func TrackPresence(hub *Hub, store cache.PresenceCache, queue *keyed.Executor) {
	apply := func(userID string, update func(ctx context.Context, userID string) error) {
		queue.Go("presence:"+userID, func() {
			ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
			defer cancel()
			if err := update(ctx, userID); err != nil {
				log.Debug().Err(err).Str("userId", userID).Msg("presence update failed")
			}
		})
	}
	hub.OnConnect = func(userID string) { apply(userID, store.Connected) }
	hub.OnDisconnect = func(userID string) { apply(userID, store.Disconnected) }
}
