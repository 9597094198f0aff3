package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

// Recorder keeps published events in memory; used by tests and debugging tools
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns the events published on channel, or all events when channel is empty
func (r *Recorder) Events(channel string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if channel == "" || ev.Channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

// Types lists event types published on channel in order
func (r *Recorder) Types(channel string) []string {
	var out []string
	for _, ev := range r.Events(channel) {
		out = append(out, ev.Type)
	}
	return out
}

// Last decodes the payload of the most recent event of eventType on channel into v
func (r *Recorder) Last(channel, eventType string, v interface{}) bool {
	events := r.Events(channel)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return json.Unmarshal(events[i].Payload, v) == nil
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
