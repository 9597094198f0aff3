// Package realtime defines the push contract shared by rooms and games: channel
// naming, the event envelope, and the Publisher that carries events to subscribers.
//
// Within one process, events for a channel are published by a single writer (see
// package keyed) in the order their state transitions were committed. Across instances
// that order is not guaranteed; see RedisBus. Seq carries the aggregate version that
// produced the event; a client that sees a gap refetches a full snapshot instead of
// expecting a replay.
package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

func RoomChannel(roomID string) string { return "room:" + roomID }
func GameChannel(gameID string) string { return "game:" + gameID }
func UserChannel(userID string) string { return "user:" + userID }

// ParseChannel splits "room:abc" into ("room", "abc")
func ParseChannel(channel string) (kind, id string, ok bool) {
	kind, id, ok = strings.Cut(channel, ":")
	if !ok || id == "" {
		return "", "", false
	}
	switch kind {
	case "room", "game", "user":
		return kind, id, true
	}
	return "", "", false
}

type Event struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Seq       int64           `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent marshals payload into an envelope
func NewEvent(channel, eventType string, seq int64, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		Channel:   channel,
		Seq:       seq,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher delivers events to the subscribers of ev.Channel. Delivery is best effort:
// offline or slow subscribers miss events and recover from a snapshot.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi fans an event out to several publishers in order
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
