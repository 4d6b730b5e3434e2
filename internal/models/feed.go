package models

import "time"

type ContentKind string

const (
	KindTicket ContentKind = "TICKET"
	KindReview ContentKind = "REVIEW"
)

// FeedItem is one entry of a feed. Exactly one of Ticket and Review is set.
// Answered tells the page not to offer a "respond" action.
type FeedItem struct {
	Kind      ContentKind
	Ticket    *Ticket
	Review    *Review
	Answered  bool
	CreatedAt time.Time
}

func TicketItem(t *Ticket, answered bool) FeedItem {
	return FeedItem{Kind: KindTicket, Ticket: t, Answered: answered, CreatedAt: t.CreatedAt}
}

func ReviewItem(r *Review, answered bool) FeedItem {
	return FeedItem{Kind: KindReview, Review: r, Answered: answered, CreatedAt: r.CreatedAt}
}

// IsTicket is used by the templates.
func (f FeedItem) IsTicket() bool {
	return f.Kind == KindTicket
}
