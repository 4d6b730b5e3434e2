package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/middleware"
	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/services"
)

// AuthHandler handles sign up, log in and log out.
type AuthHandler struct {
	auth         *services.AuthService
	cookieSecure bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure, logger: logger}
}

// RegisterAuthRoutes registers the pages reachable without a session.
func (h *AuthHandler) RegisterAuthRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/registration", h.RegistrationPage)
	e.POST("/registration", h.Register)
	e.GET(middleware.LoginPath, h.LoginPage)
	e.POST(middleware.LoginPath, h.Login)
}

// RegisterLogoutRoute registers logout on the protected group.
func (h *AuthHandler) RegisterLogoutRoute(g *echo.Group) {
	g.POST("/logout", h.Logout)
}

func (h *AuthHandler) Index(c echo.Context) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/home")
	}
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (h *AuthHandler) RegistrationPage(c echo.Context) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/home")
	}
	return page(c, "registration.html", nil)
}

// Register creates the account and logs the new user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var form models.RegistrationForm
	if err := bindForm(c, &form); err != nil {
		return failTo(c, h.logger, err, "/registration")
	}

	user, err := h.auth.Register(c.Request().Context(), form)
	if err != nil {
		return failTo(c, h.logger, err, "/registration")
	}
	if err := h.startSession(c, user); err != nil {
		return failTo(c, h.logger, err, middleware.LoginPath)
	}
	return succeedTo(c, fmt.Sprintf("You are now connected as %s", user.Username), "/home")
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/home")
	}
	return page(c, "authentication.html", nil)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var form models.LoginForm
	if err := bindForm(c, &form); err != nil {
		return failTo(c, h.logger, err, middleware.LoginPath)
	}

	user, err := h.auth.Authenticate(c.Request().Context(), form)
	if err != nil {
		return failTo(c, h.logger, err, middleware.LoginPath)
	}
	if err := h.startSession(c, user); err != nil {
		return failTo(c, h.logger, err, middleware.LoginPath)
	}
	return succeedTo(c, fmt.Sprintf("You are now connected as %s", user.Username), "/home")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c, h.cookieSecure)
	addFlash(c, FlashInfo, "You are now disconnected.")
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (h *AuthHandler) startSession(c echo.Context, user *models.User) error {
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	middleware.SetSessionCookie(c, token, int(h.auth.SessionTTL().Seconds()), h.cookieSecure)
	h.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return nil
}
