package config

import "time"

const (
	// Library status
	MaxLibraryResults        = 5
	DefaultLookupTimeout     = 2 * time.Second
	DefaultLookupCacheTTL    = 10 * time.Minute
	DefaultLibraryAPIBaseURL = "http://data4library.kr/api"
	EarthRadiusKm            = 6371.0

	// Trade rooms
	MaxMessageLength       = 2000
	MaxLocationLength      = 200
	MaxLockerNumberLength  = 20
	RoomEventChannelPrefix = "trade:room:"

	// Tokens
	TokenTTL        = 72 * time.Hour
	TelegramLinkTTL = 10 * time.Minute
)
