package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wordrooms/internal/model"
	"wordrooms/internal/repository"
)

// FriendChecker reports which candidates are friends of userID
type FriendChecker interface {
	FriendsAmong(ctx context.Context, userID string, candidateIDs []string) (map[string]bool, error)
}

// UserDirectory resolves display names
type UserDirectory interface {
	Usernames(ctx context.Context, userIDs []string) (map[string]string, error)
}

// StatsRecorder applies one game result to a user's statistics. It reports false when
// the result for gameID was already applied.
type StatsRecorder interface {
	RecordResult(ctx context.Context, gameID, userID string, outcome model.GameOutcome, score int, at time.Time) (bool, error)
}

// Notifier stores a durable inbox notification
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// RepoNotifier writes notifications to the notification store
type RepoNotifier struct {
	repo repository.NotificationRepo
}

func NewRepoNotifier(repo repository.NotificationRepo) *RepoNotifier {
	return &RepoNotifier{repo: repo}
}

func (n *RepoNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	if notification.NotificationID == "" {
		notification.NotificationID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	return n.repo.Create(ctx, notification)
}

// usernameOf falls back to the id when the directory has no entry
func usernameOf(names map[string]string, userID string) string {
	if n, ok := names[userID]; ok && n != "" {
		return n
	}
	return userID
}

func lookupNames(ctx context.Context, users UserDirectory, ids []string) map[string]string {
	if users == nil || len(ids) == 0 {
		return map[string]string{}
	}
	names, err := users.Usernames(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Strs("users", ids).Msg("username lookup failed")
	}
	if names == nil {
		return map[string]string{}
	}
	return names
}
