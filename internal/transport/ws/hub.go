package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/realtime"
)

var ErrHubClosed = errors.New("hub closed")

// Hub fans events out to the local sockets subscribed to their channel. It implements
// realtime.Publisher. A single loop performs removal and delivery, so
// events leave in the order they were published and a client's send buffer is never
// written after it was closed.
type Hub struct {
	registry *Registry

	register   chan *Client
	unregister chan *Client
	broadcast  chan realtime.Event
	done       chan struct{}

	// OnConnect / OnDisconnect observe every socket that is registered or removed
	OnConnect    func(userID string)
	OnDisconnect func(userID string)
}

func NewHub() *Hub {
	h := &Hub{
		registry:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan realtime.Event, 1024),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) Registry() *Registry { return h.registry }

func (h *Hub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			log.Debug().Str("userId", c.UserID).Msg("socket connected")
			if h.OnConnect != nil {
				h.OnConnect(c.UserID)
			}

		case c := <-h.unregister:
			if h.registry.Remove(c) {
				close(c.send)
				log.Debug().Str("userId", c.UserID).Msg("socket disconnected")
				if h.OnDisconnect != nil {
					h.OnDisconnect(c.UserID)
				}
			}

		case ev := <-h.broadcast:
			h.deliver(ev)

		case <-h.done:
			return
		}
	}
}

func (h *Hub) deliver(ev realtime.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("encode event")
		return
	}
	for _, c := range h.registry.Subscribers(ev.Channel) {
		select {
		case c.send <- data:
		default:
			// slow consumer; it will resync from a snapshot
			log.Debug().Str("userId", c.UserID).Str("channel", ev.Channel).Msg("drop event")
		}
	}
}

// Register makes c visible to Publish before it returns. Every socket hears its own
// user channel.
func (h *Hub) Register(c *Client) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	h.registry.Add(c)
	h.registry.Subscribe(c, realtime.UserChannel(c.UserID))
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		h.registry.Remove(c)
		return ErrHubClosed
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues ev for local delivery
func (h *Hub) Publish(ctx context.Context, ev realtime.Event) error {
	select {
	case h.broadcast <- ev:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues a reply addressed to one client only
func (h *Hub) Send(c *Client, ev realtime.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.trySend(data)
}
