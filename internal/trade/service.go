// Package trade implements trade rooms between a seller and a buyer: room
// registry, status negotiation and in-room messaging.
package trade

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"time"

	"go.uber.org/zap"
)

// EventSink receives events of committed room changes. Failures are logged
// and never undo the change.
type EventSink interface {
	Publish(ctx context.Context, event models.TradeEvent) error
}

type Service struct {
	store  storage.Storage
	sinks  []EventSink
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store storage.Storage, logger *zap.Logger, sinks ...EventSink) *Service {
	return &Service{
		store:  store,
		sinks:  sinks,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) event(kind models.EventKind, room *models.TradeRoom, actorID string) models.TradeEvent {
	return models.TradeEvent{
		Kind:     kind,
		RoomID:   room.ID,
		SellerID: room.SellerID,
		BuyerID:  room.BuyerID,
		ActorID:  actorID,
		Status:   room.Status,
		At:       s.now(),
	}
}

func (s *Service) publish(ctx context.Context, events ...models.TradeEvent) {
	for _, ev := range events {
		for _, sink := range s.sinks {
			if err := sink.Publish(ctx, ev); err != nil {
				s.logger.Warn("failed to publish trade event",
					zap.String("room_id", ev.RoomID),
					zap.String("kind", string(ev.Kind)),
					zap.Error(err))
			}
		}
	}
}

// lockRoom loads the room inside tx, locking its row where supported.
func lockRoom(ctx context.Context, tx storage.Storage, roomID string) (*models.TradeRoom, error) {
	room, err := tx.GetRoomForUpdate(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	return room, nil
}

// setStatus applies a status change through mechanism m, guarded by the
// transition table and a compare-and-set on the current status.
func setStatus(ctx context.Context, tx storage.Storage, room *models.TradeRoom, to models.TradeStatus, m Mechanism) error {
	if !CanTransition(room.Status, to, m) {
		return ErrInvalidState
	}
	err := tx.CompareAndSetStatus(ctx, room.ID, room.Status, to)
	if errors.Is(err, storage.ErrConflict) {
		return ErrStatusConflict
	}
	if err != nil {
		return fmt.Errorf("update room %s status: %w", room.ID, err)
	}
	room.Status = to
	return nil
}
