package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/realtime"
)

// outbox collects events produced by one state transition. They are published only
// after the transition commits, stamped with the committed version.
type outbox struct {
	events []pending
}

type pending struct {
	channel   string
	eventType string
	payload   interface{}
}

func (o *outbox) add(channel, eventType string, payload interface{}) {
	o.events = append(o.events, pending{channel: channel, eventType: eventType, payload: payload})
}

func (o *outbox) reset() {
	o.events = o.events[:0]
}

// flush publishes in insertion order. Delivery failures are logged and dropped;
// subscribers recover from a snapshot.
func (o *outbox) flush(ctx context.Context, pub realtime.Publisher, seq int64) {
	if pub == nil {
		return
	}
	for _, p := range o.events {
		ev, err := realtime.NewEvent(p.channel, p.eventType, seq, p.payload)
		if err != nil {
			log.Error().Err(err).Str("type", p.eventType).Msg("failed to encode event")
			continue
		}
		if err := pub.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("channel", p.channel).Str("type", p.eventType).Msg("publish failed")
		}
	}
	o.reset()
}
