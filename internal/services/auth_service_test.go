package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/pkg/apperror"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, models.RegistrationForm{Username: " reader ", Password: "long-enough", PasswordConfirm: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
	assert.NotEqual(t, "long-enough", user.Password)

	tests := []struct {
		name string
		form models.RegistrationForm
		want error
	}{
		{"duplicate", models.RegistrationForm{Username: "reader", Password: "long-enough", PasswordConfirm: "long-enough"}, apperror.ErrConflict},
		{"mismatch", models.RegistrationForm{Username: "other", Password: "long-enough", PasswordConfirm: "different!"}, apperror.ErrValidation},
		{"short password", models.RegistrationForm{Username: "other", Password: "short", PasswordConfirm: "short"}, apperror.ErrValidation},
		{"bad characters", models.RegistrationForm{Username: "no spaces", Password: "long-enough", PasswordConfirm: "long-enough"}, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.form)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "reader")

	user, err := env.auth.Authenticate(ctx, models.LoginForm{Username: "reader", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)

	_, err = env.auth.Authenticate(ctx, models.LoginForm{Username: "reader", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = env.auth.Authenticate(ctx, models.LoginForm{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestSessionToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "reader")

	token, err := env.auth.IssueToken(user)
	require.NoError(t, err)

	claims, err := env.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "reader", claims.Username)

	_, err = env.auth.ParseToken(token + "tampered")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	env.auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := env.auth.IssueToken(user)
	require.NoError(t, err)
	_, err = env.auth.ParseToken(expired)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
