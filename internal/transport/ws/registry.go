package ws

import "sync"

// Registry indexes live clients by user and by subscribed channel
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]map[*Client]struct{}
	byChannel map[string]map[*Client]struct{}
	channels  map[*Client]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]map[*Client]struct{}),
		byChannel: make(map[string]map[*Client]struct{}),
		channels:  make(map[*Client]map[string]struct{}),
	}
}

// Add inserts the client; it reports whether this is the user's first live connection
func (r *Registry) Add(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[c]; ok {
		return false
	}
	r.channels[c] = make(map[string]struct{})
	conns := r.byUser[c.UserID]
	if conns == nil {
		conns = make(map[*Client]struct{})
		r.byUser[c.UserID] = conns
	}
	conns[c] = struct{}{}
	return len(conns) == 1
}

// Remove drops the client and all of its subscriptions. It reports false if the client
// was not registered.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.channels[c]
	if !ok {
		return false
	}
	for ch := range subs {
		r.unsubscribeLocked(c, ch)
	}
	delete(r.channels, c)
	if conns := r.byUser[c.UserID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(r.byUser, c.UserID)
		}
	}
	return true
}

func (r *Registry) Subscribe(c *Client, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.channels[c]
	if !ok {
		return false
	}
	subs[channel] = struct{}{}
	set := r.byChannel[channel]
	if set == nil {
		set = make(map[*Client]struct{})
		r.byChannel[channel] = set
	}
	set[c] = struct{}{}
	return true
}

func (r *Registry) Unsubscribe(c *Client, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subs, ok := r.channels[c]; ok {
		delete(subs, channel)
	}
	r.unsubscribeLocked(c, channel)
}

func (r *Registry) unsubscribeLocked(c *Client, channel string) {
	set := r.byChannel[channel]
	if set == nil {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.byChannel, channel)
	}
}

// Subscribers returns a snapshot of the clients on channel
func (r *Registry) Subscribers(channel string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byChannel[channel]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// UserClients returns every live connection of userID
func (r *Registry) UserClients(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[userID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsSubscribed(c *Client, channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[c][channel]
	return ok
}

func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
