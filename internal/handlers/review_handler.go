package handlers

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/middleware"
	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/services"
	"github.com/anonto42/litreview/pkg/apperror"
)

// ReviewHandler handles HTTP requests related to reviews
type ReviewHandler struct {
	content *services.ContentService
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(content *services.ContentService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{content: content, logger: logger}
}

// RegisterReviewRoutes registers review-related routes
func (h *ReviewHandler) RegisterReviewRoutes(g *echo.Group) {
	g.GET("/new_review", h.NewReviewPage)
	g.POST("/new_review", h.CreateTicketWithReview)
	g.GET("/new_review/:ticket_id", h.RespondPage)
	g.POST("/new_review/:ticket_id", h.Respond)
	g.GET("/edit_review/:review_id", h.EditReviewPage)
	g.POST("/edit_review/:review_id", h.UpdateReview)
	g.POST("/del_review/:review_id", h.DeleteReview)
}

// NewReviewPage shows the combined ticket and review form.
func (h *ReviewHandler) NewReviewPage(c echo.Context) error {
	return page(c, "content_creation.html", echo.Map{
		"Heading":    "Create a review",
		"Action":     "/new_review",
		"WithTicket": true,
		"WithReview": true,
		"Ticket":     &models.Ticket{},
		"Review":     &models.Review{},
	})
}

// CreateTicketWithReview stores a ticket and the author's review of it together.
func (h *ReviewHandler) CreateTicketWithReview(c echo.Context) error {
	var ticketForm models.TicketForm
	if err := bindForm(c, &ticketForm); err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	var reviewForm models.ReviewForm
	if err := bindReviewForm(c, &reviewForm); err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	defer closeUpload()

	if _, _, err := h.content.CreateTicketWithReview(c.Request().Context(), middleware.CurrentUser(c), ticketForm, upload, reviewForm); err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	return succeedTo(c, "Your review has been successfully created", "/home")
}

// RespondPage shows a ticket and the form to answer it.
func (h *ReviewHandler) RespondPage(c echo.Context) error {
	id, err := paramID(c, "ticket_id")
	if err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	ticket, err := h.content.GetTicket(c.Request().Context(), id)
	if err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	return page(c, "content_creation.html", echo.Map{
		"Heading":    "Respond to a ticket",
		"Action":     fmt.Sprintf("/new_review/%d", ticket.ID),
		"WithReview": true,
		"Answering":  ticket,
		"Review":     &models.Review{},
	})
}

// Respond creates a review answering an existing ticket.
func (h *ReviewHandler) Respond(c echo.Context) error {
	id, err := paramID(c, "ticket_id")
	if err != nil {
		return failTo(c, h.logger, err, "/new_review")
	}
	respondPage := fmt.Sprintf("/new_review/%d", id)

	var form models.ReviewForm
	if err := bindReviewForm(c, &form); err != nil {
		return failTo(c, h.logger, err, respondPage)
	}
	if _, err := h.content.CreateReview(c.Request().Context(), middleware.CurrentUser(c), id, form); err != nil {
		if errors.Is(err, apperror.ErrAlreadyReviewed) {
			return failTo(c, h.logger, err, "/home")
		}
		return failTo(c, h.logger, err, respondPage)
	}
	return succeedTo(c, "Your review has been successfully created", "/home")
}

func (h *ReviewHandler) EditReviewPage(c echo.Context) error {
	id, err := paramID(c, "review_id")
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	review, err := h.content.ReviewForEdit(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	return page(c, "content_creation.html", echo.Map{
		"Heading":    "Edit your review",
		"Action":     fmt.Sprintf("/edit_review/%d", review.ID),
		"WithReview": true,
		"Editing":    true,
		"Answering":  review.Ticket,
		"Review":     review,
	})
}

// UpdateReview updates an existing review
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	id, err := paramID(c, "review_id")
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	editPage := fmt.Sprintf("/edit_review/%d", id)

	var form models.ReviewForm
	if err := bindReviewForm(c, &form); err != nil {
		return failTo(c, h.logger, err, editPage)
	}
	if _, err := h.content.EditReview(c.Request().Context(), middleware.CurrentUser(c), id, form); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return failTo(c, h.logger, err, editPage)
		}
		return failTo(c, h.logger, err, "/posts")
	}
	return succeedTo(c, "Your review has been successfully updated", "/posts")
}

// DeleteReview deletes a review
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := paramID(c, "review_id")
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	if err := h.content.DeleteReview(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	return succeedTo(c, "Your review has been successfully removed", "/posts")
}
