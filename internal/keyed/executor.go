// Package keyed runs work serially per key: one logical actor per room or game id.
// Work for different keys runs concurrently. A key's goroutine exits once its queue
// drains, so idle rooms and games cost nothing.
package keyed

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type worker struct {
	jobs chan func()
	refs int
}

type Executor struct {
	mu      sync.Mutex
	workers map[string]*worker
	backlog int
}

// NewExecutor creates an executor whose per-key queues hold up to backlog waiting jobs
func NewExecutor(backlog int) *Executor {
	if backlog <= 0 {
		backlog = 64
	}
	return &Executor{
		workers: make(map[string]*worker),
		backlog: backlog,
	}
}

// Do runs fn after every previously submitted job for key has finished and returns its
// error. If ctx ends while waiting, Do returns ctx.Err(); a job that was already queued
// still runs.
func (e *Executor) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("keyed job %s panicked: %v", key, r)
			}
		}()
		done <- fn(ctx)
	}

	w := e.acquire(key)
	select {
	case w.jobs <- job:
	case <-ctx.Done():
		e.abandon(key, w)
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go queues fn behind key's earlier work and returns without waiting for it to run.
// Calls made in sequence for the same key run in that sequence. Go blocks only while
// the key's backlog is full.
func (e *Executor) Go(key string, fn func()) {
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("key", key).Interface("panic", r).Msg("keyed job panicked")
			}
		}()
		fn()
	}
	w := e.acquire(key)
	w.jobs <- job
}

// Len reports the number of keys with queued or running work
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.workers)
}

func (e *Executor) acquire(key string) *worker {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.workers[key]
	if !ok {
		w = &worker{jobs: make(chan func(), e.backlog)}
		e.workers[key] = w
		go e.run(key, w)
	}
	w.refs++
	return w
}

func (e *Executor) run(key string, w *worker) {
	for job := range w.jobs {
		job()
		if e.release(key, w) {
			return
		}
	}
}

// release drops one reference and reports whether the worker is now unused
func (e *Executor) release(key string, w *worker) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	w.refs--
	if w.refs == 0 {
		delete(e.workers, key)
		return true
	}
	return false
}

func (e *Executor) abandon(key string, w *worker) {
	if e.release(key, w) {
		close(w.jobs)
	}
}
