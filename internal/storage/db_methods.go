package storage

import (
	"context"
	"errors"
	"seogaeum/backend/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) GetUserByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.DB.WithContext(ctx).Save(user).Error)
}

// CreateTelegramLink stores a new link code and drops the user's earlier
// codes, so only the latest one can be redeemed.
func (s *Service) CreateTelegramLink(ctx context.Context, link *models.TelegramLink) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", link.UserID).Delete(&models.TelegramLink{}).Error; err != nil {
			return err
		}
		return translate(tx.Create(link).Error)
	})
}

// ConsumeTelegramLink deletes the link code and returns it. A code can be
// consumed once; later calls get ErrNotFound. Expiry is up to the caller.
func (s *Service) ConsumeTelegramLink(ctx context.Context, code string) (*models.TelegramLink, error) {
	var link models.TelegramLink
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&link).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("code = ?", code).Delete(&models.TelegramLink{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *Service) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := s.DB.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (s *Service) SaveBook(ctx context.Context, book *models.Book) error {
	return translate(s.DB.WithContext(ctx).Save(book).Error)
}

// FindSeller returns the earliest-registered owner of the book who set a
// non-zero price.
func (s *Service) FindSeller(ctx context.Context, bookID uint) (*models.Ownership, error) {
	var o models.Ownership
	err := s.DB.WithContext(ctx).
		Where("book_id = ? AND price > 0", bookID).
		Order("created_at asc, id asc").
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// UpsertOwnership registers the ownership or updates the asking price of an
// existing one.
func (s *Service) UpsertOwnership(ctx context.Context, ownership *models.Ownership) error {
	return translate(s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(ownership).Error)
}

func (s *Service) DeleteOwnership(ctx context.Context, bookID uint, userID string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Delete(&models.Ownership{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ToggleWish adds the wish if absent and removes it otherwise. It reports
// whether the book is wished afterwards.
func (s *Service) ToggleWish(ctx context.Context, bookID uint, userID string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Delete(&models.Wish{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	err := translate(s.DB.WithContext(ctx).Create(&models.Wish{BookID: bookID, UserID: userID}).Error)
	if errors.Is(err, ErrDuplicate) {
		// A concurrent toggle added it first.
		return true, nil
	}
	return err == nil, err
}

func (s *Service) SaveBookMessage(ctx context.Context, msg *models.BookMessage) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

func (s *Service) ListBookMessages(ctx context.Context, bookID uint) ([]models.BookMessage, error) {
	var msgs []models.BookMessage
	err := s.DB.WithContext(ctx).Where("book_id = ?", bookID).Order("id asc").Find(&msgs).Error
	return msgs, err
}

func (s *Service) FindRoom(ctx context.Context, bookID uint, sellerID, buyerID string) (*models.TradeRoom, error) {
	var room models.TradeRoom
	err := s.DB.WithContext(ctx).
		Where("book_id = ? AND seller_id = ? AND buyer_id = ?", bookID, sellerID, buyerID).
		First(&room).Error
	if err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// CreateRoom inserts a new room. ErrDuplicate means another request created
// the room for the same triple first.
func (s *Service) CreateRoom(ctx context.Context, room *models.TradeRoom) error {
	return translate(s.DB.WithContext(ctx).Omit(clause.Associations).Create(room).Error)
}

func (s *Service) GetRoomByID(ctx context.Context, roomID string) (*models.TradeRoom, error) {
	var room models.TradeRoom
	if err := s.DB.WithContext(ctx).Preload("Book").Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// GetRoomForUpdate reads the room and, on PostgreSQL, locks its row until the
// surrounding transaction ends. Writers still compare-and-set the status, so
// dialects without row locks stay correct.
func (s *Service) GetRoomForUpdate(ctx context.Context, roomID string) (*models.TradeRoom, error) {
	q := s.DB.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var room models.TradeRoom
	if err := q.Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// ListRoomsForUser returns the rooms where userID is seller or buyer, most
// recently active first.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.TradeRoom, error) {
	var rooms []models.TradeRoom
	err := s.DB.WithContext(ctx).
		Preload("Book").
		Where("seller_id = ? OR buyer_id = ?", userID, userID).
		Order("updated_at desc, id asc").
		Find(&rooms).Error
	return rooms, err
}

// CompareAndSetStatus moves the room from one status to another. It returns
// ErrConflict when the room is no longer in status from.
func (s *Service) CompareAndSetStatus(ctx context.Context, roomID string, from, to models.TradeStatus) error {
	res := s.DB.WithContext(ctx).
		Model(&models.TradeRoom{}).
		Where("id = ? AND status = ?", roomID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// UpdateRoomLocation sets the drop-off location and locker of a room that
// is not completed yet. Nil values clear the field.
func (s *Service) UpdateRoomLocation(ctx context.Context, roomID string, location, lockerNumber *string) error {
	res := s.DB.WithContext(ctx).
		Model(&models.TradeRoom{}).
		Where("id = ? AND status <> ?", roomID, models.StatusCompleted).
		Updates(map[string]interface{}{
			"location":      location,
			"locker_number": lockerNumber,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// CreateRequest inserts a pending request. ErrDuplicate means a pending
// request for the same room and target already exists.
func (s *Service) CreateRequest(ctx context.Context, req *models.StatusChangeRequest) error {
	return translate(s.DB.WithContext(ctx).Create(req).Error)
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (*models.StatusChangeRequest, error) {
	var req models.StatusChangeRequest
	if err := s.DB.WithContext(ctx).Where("id = ?", requestID).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Service) ListPendingRequests(ctx context.Context, roomID string) ([]models.StatusChangeRequest, error) {
	var reqs []models.StatusChangeRequest
	err := s.DB.WithContext(ctx).
		Where("room_id = ? AND state = ?", roomID, models.RequestPending).
		Order("created_at asc").
		Find(&reqs).Error
	return reqs, err
}

func (s *Service) HasPendingRequest(ctx context.Context, roomID string, target models.TradeStatus) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.StatusChangeRequest{}).
		Where("room_id = ? AND target_status = ? AND state = ?", roomID, target, models.RequestPending).
		Count(&n).Error
	return n > 0, err
}

// ResolveRequest records the decision on a pending request. It returns
// ErrConflict when the request was already resolved.
func (s *Service) ResolveRequest(ctx context.Context, requestID string, state models.RequestState, resolverID string) error {
	res := s.DB.WithContext(ctx).
		Model(&models.StatusChangeRequest{}).
		Where("id = ? AND state = ?", requestID, models.RequestPending).
		Updates(map[string]interface{}{
			"state":       state,
			"resolved_by": resolverID,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Service) SaveTradeMessage(ctx context.Context, msg *models.TradeMessage) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

// ListTradeMessages returns the room's messages in creation order.
func (s *Service) ListTradeMessages(ctx context.Context, roomID string) ([]models.TradeMessage, error) {
	var msgs []models.TradeMessage
	err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).Order("id asc").Find(&msgs).Error
	return msgs, err
}

func (s *Service) ListLibraries(ctx context.Context) ([]models.LibraryRecord, error) {
	var libs []models.LibraryRecord
	err := s.DB.WithContext(ctx).Order("code asc").Find(&libs).Error
	return libs, err
}

func (s *Service) SaveLibrary(ctx context.Context, lib *models.LibraryRecord) error {
	return s.DB.WithContext(ctx).Save(lib).Error
}

var _ Storage = (*Service)(nil)
