package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is the authenticated principal of the platform. Registration and
// login live outside this service; rows here are the identity the trade core
// refers to as seller, buyer, requester or sender.
type User struct {
	ID       string `gorm:"primaryKey" json:"id"` // UUID
	Email    string `gorm:"index" json:"email"`
	Nickname string `json:"nickname"`
	// FavoriteLibraries holds library names separated by commas,
	// e.g. "서초구립반포도서관, 국립중앙도서관".
	FavoriteLibraries string   `gorm:"type:text" json:"favorite_libraries"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	// PreferredGenres is kept in PostgreSQL array literal form.
	PreferredGenres pq.StringArray `gorm:"type:text" json:"preferred_genres"`
	TelegramChatID  *int64         `gorm:"index" json:"-"`
	LanguageCode    string         `gorm:"default:ko" json:"language_code"`
	CreatedAt       time.Time      `json:"created_at"`
}

// BeforeCreate generates a UUID for the user if none is set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
