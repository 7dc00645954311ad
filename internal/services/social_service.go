package services

import (
	"context"
	"errors"
	"time"

	"github.com/amalxloop/EatFlex/internal/metrics"
	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/jackc/pgx/v5"
)

type FollowToggler interface {
	ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListSummaries(ctx context.Context, ids []string) ([]models.UserSummary, error)
}

type SocialService struct {
	graph    FollowToggler
	users    UserDirectory
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSocialService(graph FollowToggler, users UserDirectory, notifier Notifier, m *metrics.Metrics) *SocialService {
	return &SocialService{
		graph:    graph,
		users:    users,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// ToggleFollow follows targetID if the caller does not follow them yet and
// unfollows otherwise. It returns the relationship after the toggle.
func (s *SocialService) ToggleFollow(ctx context.Context, caller *models.User, targetID string) (bool, error) {
	if targetID == caller.ID {
		return false, invalid("Cannot follow yourself")
	}

	following, err := s.graph.ToggleFollow(ctx, caller.ID, targetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}

	s.metrics.FollowToggled(following)
	if following && s.notifier != nil {
		s.notifier.Notify(models.Notification{
			Type:        models.NotificationFollow,
			RecipientID: targetID,
			ActorID:     caller.ID,
			ActorName:   caller.Name,
			CreatedAt:   s.now().UTC(),
		})
	}
	return following, nil
}

func (s *SocialService) ListFollowers(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.users.ListSummaries(ctx, user.Followers)
}

func (s *SocialService) ListFollowing(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.users.ListSummaries(ctx, user.Following)
}

func (s *SocialService) lookup(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}
