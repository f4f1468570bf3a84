// Package storage persists the trade core in PostgreSQL through GORM and
// uses Redis for the room event feed and the library lookup cache.
package storage

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrConflict is returned when a conditional update matched no row
	// because the expected state had already changed.
	ErrConflict = errors.New("storage: conditional update lost")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("storage: duplicate record")
)

type Storage interface {
	// InTx runs fn against a Storage bound to one database transaction.
	// Returning an error from fn rolls the transaction back.
	InTx(ctx context.Context, fn func(tx Storage) error) error

	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	CreateTelegramLink(ctx context.Context, link *models.TelegramLink) error
	ConsumeTelegramLink(ctx context.Context, code string) (*models.TelegramLink, error)

	GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error)
	SaveBook(ctx context.Context, book *models.Book) error
	FindSeller(ctx context.Context, bookID uint) (*models.Ownership, error)
	UpsertOwnership(ctx context.Context, ownership *models.Ownership) error
	DeleteOwnership(ctx context.Context, bookID uint, userID string) (bool, error)
	ToggleWish(ctx context.Context, bookID uint, userID string) (bool, error)
	SaveBookMessage(ctx context.Context, msg *models.BookMessage) error
	ListBookMessages(ctx context.Context, bookID uint) ([]models.BookMessage, error)

	FindRoom(ctx context.Context, bookID uint, sellerID, buyerID string) (*models.TradeRoom, error)
	CreateRoom(ctx context.Context, room *models.TradeRoom) error
	GetRoomByID(ctx context.Context, roomID string) (*models.TradeRoom, error)
	GetRoomForUpdate(ctx context.Context, roomID string) (*models.TradeRoom, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.TradeRoom, error)
	CompareAndSetStatus(ctx context.Context, roomID string, from, to models.TradeStatus) error
	UpdateRoomLocation(ctx context.Context, roomID string, location, lockerNumber *string) error

	CreateRequest(ctx context.Context, req *models.StatusChangeRequest) error
	GetRequest(ctx context.Context, requestID string) (*models.StatusChangeRequest, error)
	ListPendingRequests(ctx context.Context, roomID string) ([]models.StatusChangeRequest, error)
	HasPendingRequest(ctx context.Context, roomID string, target models.TradeStatus) (bool, error)
	ResolveRequest(ctx context.Context, requestID string, state models.RequestState, resolverID string) error

	SaveTradeMessage(ctx context.Context, msg *models.TradeMessage) error
	ListTradeMessages(ctx context.Context, roomID string) ([]models.TradeMessage, error)

	ListLibraries(ctx context.Context) ([]models.LibraryRecord, error)
	SaveLibrary(ctx context.Context, lib *models.LibraryRecord) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil, which disables the event
// feed and the lookup cache.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

func (s *Service) InTx(ctx context.Context, fn func(tx Storage) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis})
	})
}

// Migrate creates or updates every table of the service.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.TelegramLink{},
		&models.Book{},
		&models.Ownership{},
		&models.Wish{},
		&models.BookMessage{},
		&models.LibraryRecord{},
		&models.TradeRoom{},
		&models.StatusChangeRequest{},
		&models.TradeMessage{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One pending request per (room, target). Both PostgreSQL and SQLite
	// support partial indexes.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_pending_request_target
		ON status_change_requests (room_id, target_status) WHERE state = 'pending'`).Error
	if err != nil {
		return fmt.Errorf("create pending request index: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
