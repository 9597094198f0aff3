package service

import (
	"sync"
	"time"
)

// TurnTimer holds one pending round deadline per game. Firing hands the game id and
// the round the deadline was armed for to fire; a round that already ended makes the
// callback a no-op on the receiving side.
type TurnTimer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   func(gameID string, round int)
}

func NewTurnTimer(fire func(gameID string, round int)) *TurnTimer {
	return &TurnTimer{
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// Arm replaces any deadline pending for gameID
func (t *TurnTimer) Arm(gameID string, round int, d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.timers[gameID]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.timers[gameID] == timer {
			delete(t.timers, gameID)
		}
		t.mu.Unlock()
		t.fire(gameID, round)
	})
	t.timers[gameID] = timer
}

func (t *TurnTimer) Stop(gameID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[gameID]; ok {
		timer.Stop()
		delete(t.timers, gameID)
	}
}

func (t *TurnTimer) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

// Pending reports how many games have an armed deadline
func (t *TurnTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
