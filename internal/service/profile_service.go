package service

import (
	"context"
	"time"

	"wordrooms/internal/model"
	"wordrooms/internal/repository"
)

const defaultInboxSize = 50

// ProfileService serves read-only per-user views: stats, pending invitations and inbox
type ProfileService struct {
	stats         repository.StatsRepo
	invitations   repository.InvitationRepo
	notifications repository.NotificationRepo
}

func NewProfileService(stats repository.StatsRepo, invitations repository.InvitationRepo, notifications repository.NotificationRepo) *ProfileService {
	return &ProfileService{
		stats:         stats,
		invitations:   invitations,
		notifications: notifications,
	}
}

func (s *ProfileService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	st, err := s.stats.Get(ctx, userID)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return st, nil
}

func (s *ProfileService) PendingInvitations(ctx context.Context, userID string) ([]*model.Invitation, error) {
	invs, err := s.invitations.ListPending(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return invs, nil
}

func (s *ProfileService) Notifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > defaultInboxSize {
		limit = defaultInboxSize
	}
	ns, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return ns, nil
}
