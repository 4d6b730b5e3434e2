package models

import "time"

// Ticket is a request for a review of a book or an article.
type Ticket struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:128;not null"`
	Description string    `json:"description,omitempty" gorm:"size:2048"`
	Image       string    `json:"image,omitempty" gorm:"size:255"` // media-relative path
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	User        *User     `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// TicketForm carries the editable ticket fields.
type TicketForm struct {
	Title       string `form:"title" validate:"required,max=128"`
	Description string `form:"description" validate:"max=2048"`
}
