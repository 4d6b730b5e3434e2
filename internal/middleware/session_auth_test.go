package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/models"
)

type fakeTokens map[string]uint

func (f fakeTokens) ParseToken(token string) (*models.SessionClaims, error) {
	id, ok := f[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &models.SessionClaims{UserID: id}, nil
}

type fakeUsers map[uint]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func newSessionServer() *echo.Echo {
	e := echo.New()
	tokens := fakeTokens{"good": 1, "orphan": 2}
	users := fakeUsers{1: {ID: 1, Username: "alice"}}
	e.Use(LoadSession(tokens, users, zap.NewNop()))

	e.GET("/public", func(c echo.Context) error {
		if u := CurrentUser(c); u != nil {
			return c.String(http.StatusOK, u.Username)
		}
		return c.String(http.StatusOK, "anonymous")
	})
	g := e.Group("/private", RequireUser())
	g.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "hello "+CurrentUser(c).Username)
	})
	return e
}

func request(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoadSession(t *testing.T) {
	e := newSessionServer()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"no cookie", "", "anonymous"},
		{"valid session", "good", "alice"},
		{"invalid token", "forged", "anonymous"},
		{"user gone", "orphan", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(e, "/public", tt.token)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestLoadSession_ClearsForgedCookie(t *testing.T) {
	rec := request(newSessionServer(), "/public", "forged")

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestRequireUser(t *testing.T) {
	e := newSessionServer()

	rec := request(e, "/private", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))

	rec = request(e, "/private", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello alice", rec.Body.String())
}
