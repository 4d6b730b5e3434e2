package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/pkg/apperror"
)

func TestFollowUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "A")
	b := env.user(t, "B")

	t.Run("self follow", func(t *testing.T) {
		_, err := env.follow.FollowUser(ctx, a, "A")
		assert.ErrorIs(t, err, apperror.ErrSelfFollow)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.follow.FollowUser(ctx, a, "ghost")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("empty username", func(t *testing.T) {
		_, err := env.follow.FollowUser(ctx, a, "  ")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("duplicate follow", func(t *testing.T) {
		follow, err := env.follow.FollowUser(ctx, a, "B")
		require.NoError(t, err)
		assert.Equal(t, b.ID, follow.FollowingID)

		_, err = env.follow.FollowUser(ctx, a, "B")
		assert.ErrorIs(t, err, apperror.ErrDuplicateFollow)

		var count int64
		require.NoError(t, env.db.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", a.ID, b.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestUnfollowUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "A")
	b := env.user(t, "B")

	_, err := env.follow.UnfollowUser(ctx, a, 12345)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.follow.UnfollowUser(ctx, a, b.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFollowing)

	env.followUser(t, a, b)
	target, err := env.follow.UnfollowUser(ctx, a, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", target.Username)

	following, err := env.follow.ListFollowing(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestListFollowingAndFollowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	c := env.user(t, "carol")

	env.followUser(t, a, b)
	env.followUser(t, a, c)
	env.followUser(t, c, a)

	following, err := env.follow.ListFollowing(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, usernames(following))

	followers, err := env.follow.ListFollowers(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, usernames(followers))

	found, err := env.follow.SearchUsers(ctx, a, "o")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, usernames(found))

	none, err := env.follow.SearchUsers(ctx, a, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFollowStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	c := env.user(t, "carol")

	stats, err := env.follow.Stats(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, FollowStats{}, stats)

	env.followUser(t, a, b)
	env.followUser(t, a, c)
	env.followUser(t, c, a)

	stats, err = env.follow.Stats(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, FollowStats{Following: 2, Followers: 1}, stats)

	_, err = env.follow.UnfollowUser(ctx, a, b.ID)
	require.NoError(t, err)
	stats, err = env.follow.Stats(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Following)
}

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}
