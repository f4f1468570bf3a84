package trade

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"

	"go.uber.org/zap"
)

// RoomDetail is a room together with its requests awaiting a decision.
type RoomDetail struct {
	Room            *models.TradeRoom            `json:"room"`
	PendingRequests []models.StatusChangeRequest `json:"pending_requests"`
}

// GetOrCreateRoom returns the room between buyerID and the registered seller
// of the book, creating it in REQUESTED on first contact. created reports
// whether this call inserted the room.
func (s *Service) GetOrCreateRoom(ctx context.Context, isbn, buyerID string) (room *models.TradeRoom, created bool, err error) {
	book, err := s.store.GetBookByISBN(ctx, isbn)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, ErrBookNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("load book %s: %w", isbn, err)
	}

	owner, err := s.store.FindSeller(ctx, book.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, ErrNoOwnerAvailable
	}
	if err != nil {
		return nil, false, fmt.Errorf("find seller of book %d: %w", book.ID, err)
	}
	if owner.UserID == buyerID {
		return nil, false, ErrSelfTradeForbidden
	}

	room, err = s.findRoom(ctx, book.ID, owner.UserID, buyerID)
	if err != nil || room != nil {
		return room, false, err
	}

	room = &models.TradeRoom{
		BookID:   book.ID,
		SellerID: owner.UserID,
		BuyerID:  buyerID,
		Status:   models.StatusRequested,
	}
	err = s.store.CreateRoom(ctx, room)
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost the race to a concurrent request for the same triple.
		room, err = s.findRoom(ctx, book.ID, owner.UserID, buyerID)
		if err == nil && room == nil {
			err = fmt.Errorf("room for book %d vanished after duplicate insert", book.ID)
		}
		return room, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("create room: %w", err)
	}
	room.Book = book

	s.logger.Info("trade room created",
		zap.String("room_id", room.ID),
		zap.String("isbn", isbn),
		zap.String("seller_id", room.SellerID),
		zap.String("buyer_id", room.BuyerID))
	s.publish(ctx, s.event(models.EventRoomCreated, room, buyerID))
	return room, true, nil
}

func (s *Service) findRoom(ctx context.Context, bookID uint, sellerID, buyerID string) (*models.TradeRoom, error) {
	room, err := s.store.FindRoom(ctx, bookID, sellerID, buyerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return room, nil
}

// ListRoomsForUser returns every room where userID is seller or buyer.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.TradeRoom, error) {
	rooms, err := s.store.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms of %s: %w", userID, err)
	}
	return rooms, nil
}

// GetRoom returns the room and its pending requests to one of its
// participants. Requests whose target is no longer reachable from the
// room's status are left out; they stay pending in storage and are
// rejected when someone tries to accept them.
func (s *Service) GetRoom(ctx context.Context, roomID, userID string) (*RoomDetail, error) {
	room, err := s.participantRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.ListPendingRequests(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests of %s: %w", roomID, err)
	}

	open := pending[:0]
	for _, req := range pending {
		if CanTransition(room.Status, req.TargetStatus, MutualConsent) {
			open = append(open, req)
		}
	}
	return &RoomDetail{Room: room, PendingRequests: open}, nil
}

// participantRoom loads the room without locking and checks that userID
// takes part in it.
func (s *Service) participantRoom(ctx context.Context, roomID, userID string) (*models.TradeRoom, error) {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	if !room.IsParticipant(userID) {
		return nil, ErrInvalidParticipant
	}
	return room, nil
}

// Authorize returns nil when userID takes part in the room.
func (s *Service) Authorize(ctx context.Context, roomID, userID string) error {
	_, err := s.participantRoom(ctx, roomID, userID)
	return err
}
