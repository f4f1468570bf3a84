package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TradeStatus is the lifecycle status of a trade room.
type TradeStatus string

const (
	StatusRequested     TradeStatus = "REQUESTED"
	StatusApproved      TradeStatus = "APPROVED"
	StatusLibraryStored TradeStatus = "LIBRARY_STORED"
	StatusCompleted     TradeStatus = "COMPLETED"
)

// TradeRoom is one negotiation between a seller and a buyer over one book.
// Rooms are never deleted; completed rooms are the exchange history.
type TradeRoom struct {
	ID           string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookID       uint        `gorm:"not null;uniqueIndex:idx_room_book_seller_buyer" json:"book_id"`
	SellerID     string      `gorm:"not null;uniqueIndex:idx_room_book_seller_buyer;index" json:"seller_id"`
	BuyerID      string      `gorm:"not null;uniqueIndex:idx_room_book_seller_buyer;index" json:"buyer_id"`
	Status       TradeStatus `gorm:"type:varchar(20);not null;default:REQUESTED" json:"status"`
	Location     *string     `gorm:"size:200" json:"location,omitempty"`
	LockerNumber *string     `gorm:"size:20" json:"locker_number,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// BeforeCreate assigns a UUID to new rooms.
func (r *TradeRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// IsParticipant reports whether userID is the seller or the buyer.
func (r *TradeRoom) IsParticipant(userID string) bool {
	return userID != "" && (userID == r.SellerID || userID == r.BuyerID)
}

// Counterparty returns the other participant, or "" if userID is not one.
func (r *TradeRoom) Counterparty(userID string) string {
	switch userID {
	case r.SellerID:
		return r.BuyerID
	case r.BuyerID:
		return r.SellerID
	}
	return ""
}
