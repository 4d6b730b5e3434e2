package handlers

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/middleware"
	"github.com/anonto42/litreview/internal/services"
)

// FeedHandler serves the home feed and the own posts page.
type FeedHandler struct {
	feed   *services.FeedService
	logger *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/home", h.Home)
	g.GET("/posts", h.Posts)
}

// Home shows the viewer's content and the content of the users they follow.
func (h *FeedHandler) Home(c echo.Context) error {
	items, err := h.feed.ComposeFeed(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		h.logger.Error("compose feed", zap.Error(err))
		return err
	}
	return page(c, "home.html", echo.Map{
		"Heading":  "Feed",
		"Items":    items,
		"Editable": false,
	})
}

// Posts shows only the viewer's content with edit and delete actions.
func (h *FeedHandler) Posts(c echo.Context) error {
	items, err := h.feed.ComposeOwnPosts(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		h.logger.Error("compose own posts", zap.Error(err))
		return err
	}
	return page(c, "home.html", echo.Map{
		"Heading":  "Your posts",
		"Items":    items,
		"Editable": true,
	})
}
