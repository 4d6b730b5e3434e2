package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/litreview/internal/handlers"
	"github.com/anonto42/litreview/internal/middleware"
	"github.com/anonto42/litreview/internal/repositories"
	"github.com/anonto42/litreview/internal/services"
	"github.com/anonto42/litreview/pkg/config"
	"github.com/anonto42/litreview/pkg/markdown"
	"github.com/anonto42/litreview/pkg/storage"
	"github.com/anonto42/litreview/web"
)

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *gorm.DB, logger *zap.Logger) error {
	media, err := storage.NewMediaStore(cfg.Media.Root, cfg.Media.URLPrefix)
	if err != nil {
		return err
	}
	renderer, err := handlers.NewTemplateRenderer(web.Templates(), markdown.NewRenderer(), media)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	e.Renderer = renderer
	e.HTTPErrorHandler = handlers.ErrorHandler(e, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	e.GET("/health", handlers.HealthCheck(cfg.App.Name, sqlDB, logger))
	e.Static(cfg.Media.URLPrefix, media.Root())
	e.StaticFS("/static", web.Static())

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	ticketRepo := repositories.NewPostgresTicketRepository(db)
	reviewRepo := repositories.NewPostgresReviewRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.Auth, logger)
	feedService := services.NewFeedService(ticketRepo, reviewRepo, followRepo)
	contentService := services.NewContentService(ticketRepo, reviewRepo, media, services.ContentOptions{
		ThumbnailSize:  cfg.Media.ThumbnailSize,
		MaxUploadBytes: cfg.Media.MaxUploadBytes(),
	}, logger)
	followService := services.NewFollowService(followRepo, userRepo, logger)

	e.Use(middleware.LoadSession(authService, userRepo, logger))

	// --- Pages reachable without a session ---
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.CookieSecure, logger)
	authHandler.RegisterAuthRoutes(e)

	// --- Protected pages ---
	protected := e.Group("", middleware.RequireUser())
	authHandler.RegisterLogoutRoute(protected)
	handlers.NewFeedHandler(feedService, logger).RegisterFeedRoutes(protected)
	handlers.NewTicketHandler(contentService, logger).RegisterTicketRoutes(protected)
	handlers.NewReviewHandler(contentService, logger).RegisterReviewRoutes(protected)
	handlers.NewFollowHandler(followService, logger).RegisterFollowRoutes(protected)

	logger.Info("routes configured")
	return nil
}
