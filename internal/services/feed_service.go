package services

import (
	"context"
	"slices"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/repositories"
	"github.com/anonto42/litreview/pkg/apperror"
)

// FeedService composes the home feed and the own-posts page.
type FeedService struct {
	tickets repositories.TicketRepository
	reviews repositories.ReviewRepository
	follows repositories.FollowRepository
}

func NewFeedService(tickets repositories.TicketRepository, reviews repositories.ReviewRepository, follows repositories.FollowRepository) *FeedService {
	return &FeedService{tickets: tickets, reviews: reviews, follows: follows}
}

// ComposeFeed returns the tickets and reviews visible to viewer, newest first.
//
// Visible tickets are written by the viewer or someone they follow. Visible
// reviews are written by the same set of users, plus any review answering one
// of the viewer's own tickets.
func (s *FeedService) ComposeFeed(ctx context.Context, viewer *models.User) ([]models.FeedItem, error) {
	followed, err := s.follows.GetFollowingIDs(ctx, viewer.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	authors := append(followed, viewer.ID)

	tickets, err := s.tickets.ListTicketsByAuthors(ctx, authors)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	reviews, err := s.reviews.ListVisibleReviews(ctx, authors, viewer.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	reviewedIDs, err := s.reviews.ReviewedTicketIDs(ctx, viewer.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}

	reviewed := make(map[uint]bool, len(reviewedIDs))
	for _, id := range reviewedIDs {
		reviewed[id] = true
	}

	items := make([]models.FeedItem, 0, len(tickets)+len(reviews))
	for i := range tickets {
		t := &tickets[i]
		items = append(items, models.TicketItem(t, reviewed[t.ID]))
	}
	for i := range reviews {
		r := &reviews[i]
		answered := r.UserID == viewer.ID ||
			reviewed[r.TicketID] ||
			(r.Ticket != nil && r.Ticket.UserID == viewer.ID)
		items = append(items, models.ReviewItem(r, answered))
	}

	sortNewestFirst(items)
	return items, nil
}

// ComposeOwnPosts returns only the viewer's content. Everything is marked
// answered since the page offers edit and delete instead of respond.
func (s *FeedService) ComposeOwnPosts(ctx context.Context, viewer *models.User) ([]models.FeedItem, error) {
	tickets, err := s.tickets.ListTicketsByAuthors(ctx, []uint{viewer.ID})
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	reviews, err := s.reviews.ListReviewsByAuthor(ctx, viewer.ID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}

	items := make([]models.FeedItem, 0, len(tickets)+len(reviews))
	for i := range tickets {
		items = append(items, models.TicketItem(&tickets[i], true))
	}
	for i := range reviews {
		items = append(items, models.ReviewItem(&reviews[i], true))
	}

	sortNewestFirst(items)
	return items, nil
}

func sortNewestFirst(items []models.FeedItem) {
	slices.SortStableFunc(items, func(a, b models.FeedItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
