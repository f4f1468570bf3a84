package models

import "time"

// TradeMessage is one chat line inside a trade room. Messages are append-only;
// the autoincrement ID gives a strictly increasing creation order.
type TradeMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    string    `gorm:"type:varchar(36);not null;index:idx_room_msg" json:"room_id"`
	SenderID  string    `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_room_msg" json:"created_at"`
}
