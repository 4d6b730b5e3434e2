package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/repositories"
	"github.com/anonto42/litreview/pkg/apperror"
)

const searchLimit = 20

// FollowService manages follow edges between users.
type FollowService struct {
	follows repositories.FollowRepository
	users   repositories.UserRepository
	logger  *zap.Logger
}

func NewFollowService(follows repositories.FollowRepository, users repositories.UserRepository, logger *zap.Logger) *FollowService {
	return &FollowService{follows: follows, users: users, logger: logger}
}

// FollowUser makes actor follow the user called username.
func (s *FollowService) FollowUser(ctx context.Context, actor *models.User, username string) (*models.Follow, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.NewValidationError("user_name: this field is required",
			map[string]string{"user_name": "this field is required"})
	}

	target, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(username + ": Oops seems like this user doesn't exist.")
		}
		return nil, apperror.NewInternalError(err)
	}
	if target.ID == actor.ID {
		return nil, apperror.NewSelfFollow()
	}

	already, err := s.follows.IsFollowing(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if already {
		return nil, apperror.NewDuplicateFollow(target.Username)
	}

	follow := &models.Follow{FollowerID: actor.ID, FollowingID: target.ID}
	if err := s.follows.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewDuplicateFollow(target.Username)
		}
		return nil, apperror.NewInternalError(err)
	}

	follow.Follower = actor
	follow.Following = target
	s.logger.Info("user followed", zap.Uint("follower_id", actor.ID), zap.Uint("following_id", target.ID))
	return follow, nil
}

// UnfollowUser removes the edge from actor to targetID and returns the target.
func (s *FollowService) UnfollowUser(ctx context.Context, actor *models.User, targetID uint) (*models.User, error) {
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Seems like this user doesn't exist.")
		}
		return nil, apperror.NewInternalError(err)
	}

	if err := s.follows.DeleteFollow(ctx, actor.ID, target.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFollowing()
		}
		return nil, apperror.NewInternalError(err)
	}

	s.logger.Info("user unfollowed", zap.Uint("follower_id", actor.ID), zap.Uint("following_id", target.ID))
	return target, nil
}

// ListFollowing returns the users that user follows.
func (s *FollowService) ListFollowing(ctx context.Context, user *models.User) ([]models.User, error) {
	users, err := s.follows.GetFollowing(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return users, nil
}

// ListFollowers returns the users following user.
func (s *FollowService) ListFollowers(ctx context.Context, user *models.User) ([]models.User, error) {
	users, err := s.follows.GetFollowers(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return users, nil
}

// FollowStats counts both sides of a user's follow relations.
type FollowStats struct {
	Following int64
	Followers int64
}

// Stats counts the users user follows and the users following user.
func (s *FollowService) Stats(ctx context.Context, user *models.User) (FollowStats, error) {
	following, err := s.follows.GetFollowingCount(ctx, user.ID)
	if err != nil {
		return FollowStats{}, apperror.NewInternalError(err)
	}
	followers, err := s.follows.GetFollowersCount(ctx, user.ID)
	if err != nil {
		return FollowStats{}, apperror.NewInternalError(err)
	}
	return FollowStats{Following: following, Followers: followers}, nil
}

// SearchUsers finds other users by username fragment.
func (s *FollowService) SearchUsers(ctx context.Context, actor *models.User, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	users, err := s.users.SearchUsers(ctx, query, actor.ID, searchLimit)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return users, nil
}
