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

// TicketHandler handles HTTP requests related to tickets
type TicketHandler struct {
	content *services.ContentService
	logger  *zap.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(content *services.ContentService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{content: content, logger: logger}
}

// RegisterTicketRoutes registers ticket-related routes
func (h *TicketHandler) RegisterTicketRoutes(g *echo.Group) {
	g.GET("/new_ticket", h.NewTicketPage)
	g.POST("/new_ticket", h.CreateTicket)
	g.GET("/edit_ticket/:ticket_id", h.EditTicketPage)
	g.POST("/edit_ticket/:ticket_id", h.UpdateTicket)
	g.POST("/del_ticket/:ticket_id", h.DeleteTicket)
}

func (h *TicketHandler) NewTicketPage(c echo.Context) error {
	return page(c, "content_creation.html", echo.Map{
		"Heading":    "Create a ticket",
		"Action":     "/new_ticket",
		"WithTicket": true,
		"Ticket":     &models.Ticket{},
	})
}

// CreateTicket creates a new ticket
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	var form models.TicketForm
	if err := bindForm(c, &form); err != nil {
		return failTo(c, h.logger, err, "/new_ticket")
	}
	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		return failTo(c, h.logger, err, "/new_ticket")
	}
	defer closeUpload()

	if _, err := h.content.CreateTicket(c.Request().Context(), middleware.CurrentUser(c), form, upload); err != nil {
		return failTo(c, h.logger, err, "/new_ticket")
	}
	return succeedTo(c, "Your ticket has been successfully created", "/home")
}

func (h *TicketHandler) EditTicketPage(c echo.Context) error {
	id, err := paramID(c, "ticket_id")
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	ticket, err := h.content.TicketForEdit(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	return page(c, "content_creation.html", echo.Map{
		"Heading":    "Edit your ticket",
		"Action":     fmt.Sprintf("/edit_ticket/%d", ticket.ID),
		"WithTicket": true,
		"Editing":    true,
		"Ticket":     ticket,
	})
}

// UpdateTicket updates an existing ticket. A checked clear_image box drops the
// current cover unless a new one is uploaded.
func (h *TicketHandler) UpdateTicket(c echo.Context) error {
	id, err := paramID(c, "ticket_id")
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	editPage := fmt.Sprintf("/edit_ticket/%d", id)

	var form models.TicketForm
	if err := bindForm(c, &form); err != nil {
		return failTo(c, h.logger, err, editPage)
	}
	upload, closeUpload, err := imageUpload(c)
	if err != nil {
		return failTo(c, h.logger, err, editPage)
	}
	defer closeUpload()
	clearImage := c.FormValue("clear_image") != ""

	if _, err := h.content.EditTicket(c.Request().Context(), middleware.CurrentUser(c), id, form, upload, clearImage); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return failTo(c, h.logger, err, editPage)
		}
		return failTo(c, h.logger, err, "/posts")
	}
	return succeedTo(c, "Your ticket has been successfully updated", "/posts")
}

// DeleteTicket deletes a ticket and every review answering it
func (h *TicketHandler) DeleteTicket(c echo.Context) error {
	id, err := paramID(c, "ticket_id")
	if err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	if err := h.content.DeleteTicket(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return failTo(c, h.logger, err, "/posts")
	}
	return succeedTo(c, "Your ticket has been successfully removed", "/posts")
}
