package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/repositories"
	"github.com/anonto42/litreview/pkg/apperror"
	"github.com/anonto42/litreview/pkg/imaging"
)

// ImageUpload is an uploaded ticket cover.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// MediaStorage persists uploaded files.
type MediaStorage interface {
	Save(ext string, r io.Reader) (string, error)
	Delete(rel string) error
	Path(rel string) string
}

// ContentOptions tunes image handling.
type ContentOptions struct {
	ThumbnailSize  int
	MaxUploadBytes int64
}

// ContentService implements ticket and review creation, edition and deletion.
type ContentService struct {
	tickets   repositories.TicketRepository
	reviews   repositories.ReviewRepository
	media     MediaStorage
	opts      ContentOptions
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	thumbnail func(path string, size int) error
}

func NewContentService(
	tickets repositories.TicketRepository,
	reviews repositories.ReviewRepository,
	media MediaStorage,
	opts ContentOptions,
	logger *zap.Logger,
) *ContentService {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 200
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &ContentService{
		tickets:   tickets,
		reviews:   reviews,
		media:     media,
		opts:      opts,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
		thumbnail: imaging.Thumbnail,
	}
}

// CreateTicket validates and stores a new ticket.
func (s *ContentService) CreateTicket(ctx context.Context, actor *models.User, form models.TicketForm, upload *ImageUpload) (*models.Ticket, error) {
	form = cleanTicketForm(form)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}
	image, err := s.readImage(upload)
	if err != nil {
		return nil, err
	}

	rel, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		Title:       form.Title,
		Description: form.Description,
		Image:       rel,
		UserID:      actor.ID,
		CreatedAt:   s.now(),
	}
	if err := s.tickets.CreateTicket(ctx, ticket); err != nil {
		s.discardImage(rel)
		return nil, apperror.NewInternalError(err)
	}
	s.makeThumbnail(rel)

	ticket.User = actor
	s.logger.Info("ticket created", zap.Uint("ticket_id", ticket.ID), zap.Uint("user_id", actor.ID))
	return ticket, nil
}

// CreateReview answers an existing ticket.
func (s *ContentService) CreateReview(ctx context.Context, actor *models.User, ticketID uint, form models.ReviewForm) (*models.Review, error) {
	form = cleanReviewForm(form)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewValidationError("You tried to answer a ticket that doesn't exist.",
				map[string]string{"ticket": "unknown ticket"})
		}
		return nil, apperror.NewInternalError(err)
	}

	already, err := s.reviews.HasReviewed(ctx, ticket.ID, actor.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if already {
		return nil, apperror.NewAlreadyReviewed()
	}

	review := &models.Review{
		TicketID:  ticket.ID,
		Rating:    *form.Rating,
		Headline:  form.Headline,
		Body:      form.Body,
		UserID:    actor.ID,
		CreatedAt: s.now(),
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewAlreadyReviewed()
		}
		return nil, apperror.NewInternalError(err)
	}

	review.Ticket = ticket
	review.User = actor
	s.logger.Info("review created", zap.Uint("review_id", review.ID), zap.Uint("ticket_id", ticket.ID), zap.Uint("user_id", actor.ID))
	return review, nil
}

// CreateTicketWithReview writes a ticket and the author's own review of it.
// Nothing is stored unless both forms are valid.
func (s *ContentService) CreateTicketWithReview(
	ctx context.Context,
	actor *models.User,
	ticketForm models.TicketForm,
	upload *ImageUpload,
	reviewForm models.ReviewForm,
) (*models.Ticket, *models.Review, error) {
	ticketForm = cleanTicketForm(ticketForm)
	if err := validateForm(s.validate, ticketForm); err != nil {
		return nil, nil, err
	}
	image, err := s.readImage(upload)
	if err != nil {
		return nil, nil, err
	}

	reviewForm = cleanReviewForm(reviewForm)
	if err := validateForm(s.validate, reviewForm); err != nil {
		return nil, nil, err
	}

	rel, err := s.saveImage(image)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	ticket := &models.Ticket{
		Title:       ticketForm.Title,
		Description: ticketForm.Description,
		Image:       rel,
		UserID:      actor.ID,
		CreatedAt:   now,
	}
	review := &models.Review{
		Rating:    *reviewForm.Rating,
		Headline:  reviewForm.Headline,
		Body:      reviewForm.Body,
		UserID:    actor.ID,
		CreatedAt: now,
	}
	if err := s.tickets.CreateTicketWithReview(ctx, ticket, review); err != nil {
		s.discardImage(rel)
		return nil, nil, apperror.NewInternalError(err)
	}
	s.makeThumbnail(rel)

	ticket.User = actor
	review.Ticket = ticket
	review.User = actor
	s.logger.Info("ticket created with review",
		zap.Uint("ticket_id", ticket.ID), zap.Uint("review_id", review.ID), zap.Uint("user_id", actor.ID))
	return ticket, review, nil
}

// EditTicket updates one of the actor's tickets. A new upload replaces the
// current image; clearImage removes it.
func (s *ContentService) EditTicket(
	ctx context.Context,
	actor *models.User,
	ticketID uint,
	form models.TicketForm,
	upload *ImageUpload,
	clearImage bool,
) (*models.Ticket, error) {
	ticket, err := s.ownedTicket(ctx, actor, ticketID, "edit")
	if err != nil {
		return nil, err
	}

	form = cleanTicketForm(form)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}
	image, err := s.readImage(upload)
	if err != nil {
		return nil, err
	}
	rel, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}

	previous := ticket.Image
	ticket.Title = form.Title
	ticket.Description = form.Description
	switch {
	case rel != "":
		ticket.Image = rel
	case clearImage:
		ticket.Image = ""
	}

	if err := s.tickets.UpdateTicket(ctx, ticket); err != nil {
		s.discardImage(rel)
		return nil, apperror.NewInternalError(err)
	}
	if previous != ticket.Image {
		s.discardImage(previous)
	}
	s.makeThumbnail(rel)

	s.logger.Info("ticket updated", zap.Uint("ticket_id", ticket.ID), zap.Uint("user_id", actor.ID))
	return ticket, nil
}

// EditReview updates one of the actor's reviews.
func (s *ContentService) EditReview(ctx context.Context, actor *models.User, reviewID uint, form models.ReviewForm) (*models.Review, error) {
	review, err := s.ownedReview(ctx, actor, reviewID, "edit")
	if err != nil {
		return nil, err
	}

	form = cleanReviewForm(form)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}

	review.Headline = form.Headline
	review.Body = form.Body
	review.Rating = *form.Rating
	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		return nil, apperror.NewInternalError(err)
	}

	s.logger.Info("review updated", zap.Uint("review_id", review.ID), zap.Uint("user_id", actor.ID))
	return review, nil
}

// DeleteTicket removes one of the actor's tickets together with its reviews.
func (s *ContentService) DeleteTicket(ctx context.Context, actor *models.User, ticketID uint) error {
	ticket, err := s.ownedTicket(ctx, actor, ticketID, "delete")
	if err != nil {
		return err
	}
	if err := s.tickets.DeleteTicket(ctx, ticket.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound("You tried to delete a ticket that doesn't exist.")
		}
		return apperror.NewInternalError(err)
	}
	s.discardImage(ticket.Image)

	s.logger.Info("ticket deleted", zap.Uint("ticket_id", ticket.ID), zap.Uint("user_id", actor.ID))
	return nil
}

// DeleteReview removes one of the actor's reviews.
func (s *ContentService) DeleteReview(ctx context.Context, actor *models.User, reviewID uint) error {
	review, err := s.ownedReview(ctx, actor, reviewID, "delete")
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteReview(ctx, review.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound("You tried to delete a review that doesn't exist.")
		}
		return apperror.NewInternalError(err)
	}

	s.logger.Info("review deleted", zap.Uint("review_id", review.ID), zap.Uint("user_id", actor.ID))
	return nil
}

// GetTicket loads a ticket so it can be answered.
func (s *ContentService) GetTicket(ctx context.Context, ticketID uint) (*models.Ticket, error) {
	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("You tried to answer a ticket that doesn't exist.")
		}
		return nil, apperror.NewInternalError(err)
	}
	return ticket, nil
}

// TicketForEdit loads a ticket the actor is allowed to edit.
func (s *ContentService) TicketForEdit(ctx context.Context, actor *models.User, ticketID uint) (*models.Ticket, error) {
	return s.ownedTicket(ctx, actor, ticketID, "edit")
}

// ReviewForEdit loads a review the actor is allowed to edit.
func (s *ContentService) ReviewForEdit(ctx context.Context, actor *models.User, reviewID uint) (*models.Review, error) {
	return s.ownedReview(ctx, actor, reviewID, "edit")
}

// ListReviews returns the reviews answering a ticket.
func (s *ContentService) ListReviews(ctx context.Context, ticketID uint) ([]models.Review, error) {
	reviews, err := s.reviews.ListReviewsForTicket(ctx, ticketID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return reviews, nil
}

func (s *ContentService) ownedTicket(ctx context.Context, actor *models.User, ticketID uint, action string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(fmt.Sprintf("You tried to %s a ticket that doesn't exist.", action))
		}
		return nil, apperror.NewInternalError(err)
	}
	if ticket.UserID != actor.ID {
		return nil, apperror.NewForbidden(fmt.Sprintf("You can't %s other people's tickets.", action))
	}
	return ticket, nil
}

func (s *ContentService) ownedReview(ctx context.Context, actor *models.User, reviewID uint, action string) (*models.Review, error) {
	review, err := s.reviews.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound(fmt.Sprintf("You tried to %s a review that doesn't exist.", action))
		}
		return nil, apperror.NewInternalError(err)
	}
	if review.UserID != actor.ID {
		return nil, apperror.NewForbidden(fmt.Sprintf("You can't %s other people's reviews.", action))
	}
	return review, nil
}

// checkedImage is an upload that decoded as a supported image and was
// re-encoded, so nothing but pixel data reaches the media root.
type checkedImage struct {
	name string
	data []byte
	ext  string
}

// readImage buffers and checks an upload. A nil upload yields a nil image.
func (s *ContentService) readImage(upload *ImageUpload) (*checkedImage, error) {
	if upload == nil || upload.Content == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(upload.Content, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, apperror.NewInternalError(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, apperror.NewValidationError("image: the file is too large",
			map[string]string{"image": "the file is too large"})
	}
	clean, format, err := imaging.Reencode(data)
	if err != nil {
		return nil, apperror.NewValidationError("image: upload a valid image (png, jpeg or gif)",
			map[string]string{"image": "upload a valid image"})
	}
	return &checkedImage{name: upload.Filename, data: clean, ext: imaging.Extension(format)}, nil
}

func (s *ContentService) saveImage(img *checkedImage) (string, error) {
	if img == nil {
		return "", nil
	}
	rel, err := s.media.Save(img.ext, bytes.NewReader(img.data))
	if err != nil {
		return "", apperror.NewInternalError(err)
	}
	s.logger.Debug("image stored", zap.String("upload", img.name), zap.String("image", rel))
	return rel, nil
}

// makeThumbnail runs after the row is committed. Failures keep the original image.
func (s *ContentService) makeThumbnail(rel string) {
	if rel == "" {
		return
	}
	if err := s.thumbnail(s.media.Path(rel), s.opts.ThumbnailSize); err != nil {
		s.logger.Warn("thumbnail failed, keeping original image", zap.String("image", rel), zap.Error(err))
	}
}

func (s *ContentService) discardImage(rel string) {
	if rel == "" {
		return
	}
	if err := s.media.Delete(rel); err != nil {
		s.logger.Warn("failed to remove image", zap.String("image", rel), zap.Error(err))
	}
}

func cleanTicketForm(f models.TicketForm) models.TicketForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

func cleanReviewForm(f models.ReviewForm) models.ReviewForm {
	f.Headline = strings.TrimSpace(f.Headline)
	f.Body = strings.TrimSpace(f.Body)
	return f
}
