package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/repositories"
	"github.com/anonto42/litreview/pkg/config"
	"github.com/anonto42/litreview/pkg/storage"
)

type testEnv struct {
	db      *gorm.DB
	users   *repositories.PostgresUserRepository
	tickets *repositories.PostgresTicketRepository
	reviews *repositories.PostgresReviewRepository
	follows *repositories.PostgresFollowRepository
	media   *storage.MediaStore

	auth    *AuthService
	feed    *FeedService
	content *ContentService
	follow  *FollowService

	clock time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Ticket{}, &models.Review{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	media, err := storage.NewMediaStore(t.TempDir(), "/media")
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		users:   repositories.NewPostgresUserRepository(db),
		tickets: repositories.NewPostgresTicketRepository(db),
		reviews: repositories.NewPostgresReviewRepository(db),
		follows: repositories.NewPostgresFollowRepository(db),
		media:   media,
		clock:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	logger := zap.NewNop()
	env.auth = NewAuthService(env.users, config.AuthConfig{JWTSecret: "test-secret", SessionTTLHours: 1, BcryptCost: 4}, logger)
	env.feed = NewFeedService(env.tickets, env.reviews, env.follows)
	env.content = NewContentService(env.tickets, env.reviews, media, ContentOptions{ThumbnailSize: 200, MaxUploadBytes: 1 << 20}, logger)
	env.follow = NewFollowService(env.follows, env.users, logger)

	// every created row gets a distinct, increasing timestamp
	env.content.now = func() time.Time {
		env.clock = env.clock.Add(time.Minute)
		return env.clock
	}
	return env
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), models.RegistrationForm{
		Username:        username,
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) ticket(t *testing.T, author *models.User, title string) *models.Ticket {
	t.Helper()
	tk, err := e.content.CreateTicket(context.Background(), author, models.TicketForm{Title: title}, nil)
	require.NoError(t, err)
	return tk
}

func (e *testEnv) review(t *testing.T, author *models.User, ticket *models.Ticket, rating int) *models.Review {
	t.Helper()
	r, err := e.content.CreateReview(context.Background(), author, ticket.ID, models.ReviewForm{Headline: "review", Rating: intPtr(rating)})
	require.NoError(t, err)
	return r
}

func (e *testEnv) followUser(t *testing.T, actor, target *models.User) {
	t.Helper()
	_, err := e.follow.FollowUser(context.Background(), actor, target.Username)
	require.NoError(t, err)
}

func pngUpload(t *testing.T, w, h int) *ImageUpload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return &ImageUpload{Filename: "cover.png", Content: &buf}
}

func intPtr(n int) *int { return &n }
