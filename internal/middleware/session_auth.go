package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/models"
)

// SessionCookie carries the signed session token.
const SessionCookie = "litreview_session"

// LoginPath is where anonymous visitors of protected pages are sent.
const LoginPath = "/authentication_page"

const userKey = "user"

// TokenParser validates session tokens.
type TokenParser interface {
	ParseToken(token string) (*models.SessionClaims, error)
}

// UserLoader fetches the user named by a session.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// LoadSession resolves the session cookie into the current user when one is
// present and valid. Requests without a usable session pass through anonymous.
func LoadSession(tokens TokenParser, users UserLoader, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := tokens.ParseToken(cookie.Value)
			if err != nil {
				ClearSessionCookie(c, false)
				return next(c)
			}

			user, err := users.GetUserByID(c.Request().Context(), claims.UserID)
			if err != nil {
				// account removed or database hiccup; treat as logged out
				logger.Debug("session user not loaded", zap.Uint("user_id", claims.UserID), zap.Error(err))
				return next(c)
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// RequireUser redirects anonymous requests to the login page.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the logged in user, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}

// SetSessionCookie stores token in an HttpOnly cookie for maxAge seconds.
func SetSessionCookie(c echo.Context, token string, maxAge int, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
