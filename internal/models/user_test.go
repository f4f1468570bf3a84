package models_test

import (
	"reflect"
	"seogaeum/backend/internal/models"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{
		Email:           "reader@example.com",
		Nickname:        "reader",
		PreferredGenres: pq.StringArray{"소설", "과학"},
	}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID)
}

func TestTradeRoomBeforeCreate_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		room := &models.TradeRoom{SellerID: "s", BuyerID: "b"}
		assert.NoError(t, room.BeforeCreate(nil))
		assert.NotContains(t, seen, room.ID)
		seen[room.ID] = true
	}
}

func TestTradeRoom_Participants(t *testing.T) {
	room := &models.TradeRoom{SellerID: "seller", BuyerID: "buyer"}

	assert.True(t, room.IsParticipant("seller"))
	assert.True(t, room.IsParticipant("buyer"))
	assert.False(t, room.IsParticipant("stranger"))
	assert.False(t, room.IsParticipant(""))

	assert.Equal(t, "buyer", room.Counterparty("seller"))
	assert.Equal(t, "seller", room.Counterparty("buyer"))
	assert.Empty(t, room.Counterparty("stranger"))
}

func TestTradeEvent_Recipient(t *testing.T) {
	ev := models.TradeEvent{SellerID: "seller", BuyerID: "buyer", ActorID: "buyer"}
	assert.Equal(t, "seller", ev.Recipient())

	ev.ActorID = "seller"
	assert.Equal(t, "buyer", ev.Recipient())

	ev.ActorID = "system"
	assert.Empty(t, ev.Recipient())
}

func TestOwnership_ForSale(t *testing.T) {
	assert.False(t, (&models.Ownership{Price: decimal.Zero}).ForSale())
	assert.True(t, (&models.Ownership{Price: decimal.NewFromInt(12000)}).ForSale())
}

// TestTradeRoomStructTags guards the unique (book, seller, buyer) index against accidental removal.
func TestTradeRoomStructTags(t *testing.T) {
	roomType := reflect.TypeOf(models.TradeRoom{})

	for _, name := range []string{"BookID", "SellerID", "BuyerID"} {
		field, found := roomType.FieldByName(name)
		assert.True(t, found, "%s field should exist", name)
		assert.Contains(t, field.Tag.Get("gorm"), "uniqueIndex:idx_room_book_seller_buyer")
	}
}

func TestLibraryRecord_HasCoordinates(t *testing.T) {
	lat, lon := 37.5, 127.0

	assert.True(t, models.LibraryRecord{Latitude: &lat, Longitude: &lon}.HasCoordinates())
	assert.False(t, models.LibraryRecord{Latitude: &lat}.HasCoordinates())
	assert.False(t, models.LibraryRecord{}.HasCoordinates())
}
