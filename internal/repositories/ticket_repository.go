package repositories

import (
	"context"

	"github.com/anonto42/litreview/internal/models"
	"gorm.io/gorm"
)

// TicketRepository defines the interface for ticket data operations
type TicketRepository interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	// CreateTicketWithReview inserts both rows in one transaction and points
	// review at the new ticket.
	CreateTicketWithReview(ctx context.Context, ticket *models.Ticket, review *models.Review) error
	GetTicketByID(ctx context.Context, id uint) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error
	// DeleteTicket removes the ticket and every review attached to it.
	DeleteTicket(ctx context.Context, id uint) error
	ListTicketsByAuthors(ctx context.Context, userIDs []uint) ([]models.Ticket, error)
}

// PostgresTicketRepository implements TicketRepository on top of gorm
type PostgresTicketRepository struct {
	db *gorm.DB
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(db *gorm.DB) *PostgresTicketRepository {
	return &PostgresTicketRepository{db: db}
}

// CreateTicket inserts a new ticket
func (r *PostgresTicketRepository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Omit("User").Create(ticket).Error
}

func (r *PostgresTicketRepository) CreateTicketWithReview(ctx context.Context, ticket *models.Ticket, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(ticket).Error; err != nil {
			return err
		}
		review.TicketID = ticket.ID
		return tx.Omit("Ticket", "User").Create(review).Error
	})
}

// GetTicketByID retrieves a ticket and its author
func (r *PostgresTicketRepository) GetTicketByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).Preload("User").First(&ticket, id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateTicket writes the editable columns of an existing ticket
func (r *PostgresTicketRepository) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Model(ticket).Select("title", "description", "image").Updates(ticket).Error
}

// DeleteTicket deletes a ticket with its reviews
func (r *PostgresTicketRepository) DeleteTicket(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Ticket{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListTicketsByAuthors returns the tickets written by any of userIDs, newest first
func (r *PostgresTicketRepository) ListTicketsByAuthors(ctx context.Context, userIDs []uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}
