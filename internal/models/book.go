package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is a catalog entry. The catalog is imported by an external job.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ISBN      string    `gorm:"size:13;uniqueIndex;not null" json:"isbn"`
	Title     string    `gorm:"size:200" json:"title"`
	Author    string    `gorm:"size:200" json:"author"`
	Publisher string    `gorm:"size:100" json:"publisher"`
	CoverURL  string    `gorm:"size:500" json:"cover_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Ownership marks a user as owning a copy of a book. A non-zero Price means
// the copy is offered for sale and the owner is a registered seller.
type Ownership struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BookID    uint            `gorm:"not null;uniqueIndex:idx_ownership_book_user" json:"book_id"`
	UserID    string          `gorm:"not null;uniqueIndex:idx_ownership_book_user;index" json:"user_id"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ForSale reports whether the owner registered an asking price.
func (o *Ownership) ForSale() bool {
	return o.Price.IsPositive()
}

// Wish marks a book a user wants to read or buy.
type Wish struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_wish_book_user" json:"book_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_wish_book_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookMessage is one line of the public discussion thread of a book.
type BookMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"not null;index" json:"book_id"`
	UserID    string    `gorm:"not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
