package repositories

import (
	"context"

	"github.com/anonto42/litreview/internal/models"
	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByID(ctx context.Context, id uint) (*models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id uint) error
	ListReviewsForTicket(ctx context.Context, ticketID uint) ([]models.Review, error)
	ListReviewsByAuthor(ctx context.Context, userID uint) ([]models.Review, error)
	// ListVisibleReviews returns reviews written by any of authorIDs plus the
	// reviews answering a ticket owned by ticketOwnerID.
	ListVisibleReviews(ctx context.Context, authorIDs []uint, ticketOwnerID uint) ([]models.Review, error)
	ReviewedTicketIDs(ctx context.Context, userID uint) ([]uint, error)
	HasReviewed(ctx context.Context, ticketID, userID uint) (bool, error)
}

// PostgresReviewRepository implements ReviewRepository on top of gorm
type PostgresReviewRepository struct {
	db *gorm.DB
}

// NewPostgresReviewRepository creates a new PostgresReviewRepository
func NewPostgresReviewRepository(db *gorm.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

// CreateReview inserts a new review
func (r *PostgresReviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Ticket", "User").Create(review).Error
}

// GetReviewByID retrieves a review with its author and ticket
func (r *PostgresReviewRepository) GetReviewByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.withRelations(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview writes the editable columns of an existing review
func (r *PostgresReviewRepository) UpdateReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Model(review).Select("headline", "body", "rating").Updates(review).Error
}

// DeleteReview deletes a review by ID
func (r *PostgresReviewRepository) DeleteReview(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListReviewsForTicket retrieves all reviews of a ticket, newest first
func (r *PostgresReviewRepository) ListReviewsForTicket(ctx context.Context, ticketID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.withRelations(ctx).Where("ticket_id = ?", ticketID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

// ListReviewsByAuthor retrieves all reviews written by a user, newest first
func (r *PostgresReviewRepository) ListReviewsByAuthor(ctx context.Context, userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.withRelations(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *PostgresReviewRepository) ListVisibleReviews(ctx context.Context, authorIDs []uint, ticketOwnerID uint) ([]models.Review, error) {
	db := r.db.WithContext(ctx)
	ownTickets := db.Model(&models.Ticket{}).Select("id").Where("user_id = ?", ticketOwnerID)

	var reviews []models.Review
	err := r.withRelations(ctx).
		Where("user_id IN ? OR ticket_id IN (?)", authorIDs, ownTickets).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *PostgresReviewRepository) ReviewedTicketIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("user_id = ?", userID).Pluck("ticket_id", &ids).Error
	return ids, err
}

func (r *PostgresReviewRepository) HasReviewed(ctx context.Context, ticketID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("ticket_id = ? AND user_id = ?", ticketID, userID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresReviewRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Preload("Ticket").Preload("Ticket.User")
}
