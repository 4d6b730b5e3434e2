package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/middleware"
	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/services"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	follow *services.FollowService
	logger *zap.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(follow *services.FollowService, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{follow: follow, logger: logger}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.GET("/follow", h.FollowPage)
	g.POST("/follow", h.FollowUser)
	g.POST("/unfollow/:user_id", h.UnfollowUser)
}

// FollowPage lists subscriptions and subscribers. A q query parameter adds
// matching usernames to pick from.
func (h *FollowHandler) FollowPage(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	following, err := h.follow.ListFollowing(ctx, user)
	if err != nil {
		return err
	}
	followers, err := h.follow.ListFollowers(ctx, user)
	if err != nil {
		return err
	}
	stats, err := h.follow.Stats(ctx, user)
	if err != nil {
		return err
	}

	query := c.QueryParam("q")
	var matches []models.User
	if query != "" {
		if matches, err = h.follow.SearchUsers(ctx, user, query); err != nil {
			return err
		}
	}

	return page(c, "follow.html", echo.Map{
		"Following": following,
		"Followers": followers,
		"Stats":     stats,
		"Query":     query,
		"Matches":   matches,
	})
}

// FollowUser follows the user named in the user_name field
func (h *FollowHandler) FollowUser(c echo.Context) error {
	follow, err := h.follow.FollowUser(c.Request().Context(), middleware.CurrentUser(c), c.FormValue("user_name"))
	if err != nil {
		return failTo(c, h.logger, err, "/follow")
	}
	return succeedTo(c, fmt.Sprintf("You are now following %s", follow.Following.Username), "/follow")
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	id, err := paramID(c, "user_id")
	if err != nil {
		return failTo(c, h.logger, err, "/follow")
	}
	target, err := h.follow.UnfollowUser(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return failTo(c, h.logger, err, "/follow")
	}
	return succeedTo(c, fmt.Sprintf("You no longer follow %s", target.Username), "/follow")
}
