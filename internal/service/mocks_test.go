package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"wordrooms/internal/model"
)

// --- WordService ---

type MockWordService struct {
	mock.Mock
}

func (m *MockWordService) PickWord(ctx context.Context, q model.WordQuery) (*model.Word, error) {
	args := m.Called(ctx, q)
	w, _ := args.Get(0).(*model.Word)
	return w, args.Error(1)
}

func (m *MockWordService) IsValidWord(ctx context.Context, language, word string) (bool, error) {
	args := m.Called(ctx, language, word)
	return args.Bool(0), args.Error(1)
}

func (m *MockWordService) RecordUsage(ctx context.Context, language, word string, solved bool) error {
	args := m.Called(ctx, language, word, solved)
	return args.Error(0)
}

// --- RoomFinisher ---

type MockRoomFinisher struct {
	mock.Mock
}

func (m *MockRoomFinisher) FinishGame(ctx context.Context, roomID, gameID string) error {
	args := m.Called(ctx, roomID, gameID)
	return args.Error(0)
}

// --- clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
