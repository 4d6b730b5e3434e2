package models

import "time"

// Review is a rated answer to exactly one ticket.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TicketID  uint      `json:"ticket_id" gorm:"not null;index;uniqueIndex:idx_review_ticket_user"`
	Ticket    *Ticket   `json:"ticket,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Rating    int       `json:"rating" gorm:"not null"`
	Headline  string    `json:"headline" gorm:"size:128;not null"`
	Body      string    `json:"body,omitempty" gorm:"size:8192"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_review_ticket_user"`
	User      *User     `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// ReviewForm carries the editable review fields. Rating is a pointer so that
// a missing value fails validation instead of reading as zero.
type ReviewForm struct {
	Headline string `form:"headline" validate:"required,max=128"`
	Body     string `form:"body" validate:"max=8192"`
	Rating   *int   `form:"-" validate:"required,min=0,max=5"`
}
