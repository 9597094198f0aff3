package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const busChannel = "wordrooms:events"

type busMessage struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBus relays events between server instances over Redis pub/sub. Outgoing events
// go through one writer goroutine so their order on the wire matches Publish order.
// Events received from other instances are handed to the local publisher.
//
// Order holds per instance only. When two instances commit consecutive versions of one
// room or game, their writers race and remote subscribers can see the later version
// first. Clients compare Seq and refetch a snapshot on a gap or regression.
type RedisBus struct {
	client     *redis.Client
	instanceID string
	local      Publisher
	out        chan Event
	stop       chan struct{}
	wg         sync.WaitGroup
}

func NewRedisBus(client *redis.Client, instanceID string, local Publisher) *RedisBus {
	return &RedisBus{
		client:     client,
		instanceID: instanceID,
		local:      local,
		out:        make(chan Event, 1024),
		stop:       make(chan struct{}),
	}
}

// Start launches the writer and the subscriber; both exit on Close or ctx end
func (b *RedisBus) Start(ctx context.Context) {
	sub := b.client.Subscribe(ctx, busChannel)
	b.wg.Add(2)
	go b.writeLoop(ctx)
	go b.readLoop(ctx, sub)
}

func (b *RedisBus) Close() {
	close(b.stop)
	b.wg.Wait()
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	select {
	case b.out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *RedisBus) writeLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.out:
			data, err := json.Marshal(busMessage{Origin: b.instanceID, Event: ev})
			if err != nil {
				log.Error().Err(err).Str("type", ev.Type).Msg("encode bus event")
				continue
			}
			if err := b.client.Publish(ctx, busChannel, data).Err(); err != nil {
				log.Warn().Err(err).Str("channel", ev.Channel).Msg("relay event")
			}
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBus) readLoop(ctx context.Context, sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var bm busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				log.Warn().Err(err).Msg("decode bus event")
				continue
			}
			if bm.Origin == b.instanceID {
				continue
			}
			if err := b.local.Publish(ctx, bm.Event); err != nil {
				log.Debug().Err(err).Str("channel", bm.Event.Channel).Msg("deliver relayed event")
			}
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
