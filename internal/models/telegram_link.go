package models

import "time"

// TelegramLink is a single-use code a user sends to the bot to link their
// Telegram chat. It is issued to an authenticated user and expires quickly.
type TelegramLink struct {
	Code      string    `gorm:"size:64;primaryKey" json:"code"`
	UserID    string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"-"`
}
