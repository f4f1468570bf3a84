package trade

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/metrics"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Decision is the counterparty's answer to a status change request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// SellerApprove moves a REQUESTED room to APPROVED on the seller's word.
func (s *Service) SellerApprove(ctx context.Context, roomID, sellerID string) (*models.TradeRoom, error) {
	var room *models.TradeRoom
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.SellerID != sellerID {
			return ErrNotSeller
		}
		return setStatus(ctx, tx, room, models.StatusApproved, SellerDirect)
	})
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, room, sellerID, SellerDirect)
	return room, nil
}

// ProposeTransition opens a request to move the room to target. It takes
// effect only when the other participant accepts it.
func (s *Service) ProposeTransition(ctx context.Context, roomID, requesterID string, target models.TradeStatus) (*models.StatusChangeRequest, error) {
	var (
		room *models.TradeRoom
		req  *models.StatusChangeRequest
	)
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !room.IsParticipant(requesterID) {
			return ErrInvalidParticipant
		}
		if !IsProposable(target) || !CanTransition(room.Status, target, MutualConsent) {
			return ErrInvalidTargetStatus
		}
		pending, err := tx.HasPendingRequest(ctx, roomID, target)
		if err != nil {
			return fmt.Errorf("check pending requests of %s: %w", roomID, err)
		}
		if pending {
			return ErrDuplicatePendingRequest
		}

		req = &models.StatusChangeRequest{
			RoomID:       roomID,
			RequesterID:  requesterID,
			TargetStatus: target,
			State:        models.RequestPending,
		}
		err = tx.CreateRequest(ctx, req)
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrDuplicatePendingRequest
		}
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TradeRequests.WithLabelValues(string(models.RequestPending)).Inc()
	s.logger.Info("status change proposed",
		zap.String("room_id", roomID),
		zap.String("request_id", req.ID),
		zap.String("requester_id", requesterID),
		zap.String("target_status", string(target)))

	ev := s.event(models.EventRequestProposed, room, requesterID)
	ev.RequestID = req.ID
	ev.Target = target
	ev.State = req.State
	s.publish(ctx, ev)
	return req, nil
}

// ResolveRequest records the counterparty's decision on a pending request.
// Accepting applies the target status to the room in the same transaction.
//
// A request whose target is no longer reachable from the room's status (a
// competing request was accepted first) is rejected when someone tries to
// accept it, and ErrStaleRequest is returned.
func (s *Service) ResolveRequest(ctx context.Context, roomID, requestID, resolverID string, decision Decision) (*models.StatusChangeRequest, error) {
	if !decision.Valid() {
		return nil, ErrInvalidDecision
	}

	var (
		room  *models.TradeRoom
		req   *models.StatusChangeRequest
		stale bool
	)
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		req, err = tx.GetRequest(ctx, requestID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && req.RoomID != roomID) {
			return ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("load request %s: %w", requestID, err)
		}

		if !room.IsParticipant(resolverID) {
			return ErrInvalidParticipant
		}
		if resolverID == req.RequesterID {
			return ErrNotCounterparty
		}
		if !req.IsPending() {
			return ErrRequestAlreadyResolved
		}

		state := models.RequestRejected
		if decision == DecisionAccept {
			if CanTransition(room.Status, req.TargetStatus, MutualConsent) {
				state = models.RequestAccepted
			} else {
				stale = true
			}
		}

		err = tx.ResolveRequest(ctx, requestID, state, resolverID)
		if errors.Is(err, storage.ErrConflict) {
			return ErrRequestAlreadyResolved
		}
		if err != nil {
			return fmt.Errorf("resolve request %s: %w", requestID, err)
		}
		req.State = state
		req.ResolvedBy = &resolverID

		if state == models.RequestAccepted {
			return setStatus(ctx, tx, room, req.TargetStatus, MutualConsent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TradeRequests.WithLabelValues(string(req.State)).Inc()
	s.logger.Info("status change resolved",
		zap.String("room_id", roomID),
		zap.String("request_id", requestID),
		zap.String("resolver_id", resolverID),
		zap.String("state", string(req.State)),
		zap.Bool("stale", stale))

	ev := s.event(models.EventRequestResolved, room, resolverID)
	ev.RequestID = req.ID
	ev.Target = req.TargetStatus
	ev.State = req.State
	s.publish(ctx, ev)

	if req.State == models.RequestAccepted {
		s.statusChanged(ctx, room, resolverID, MutualConsent)
	}
	if stale {
		return req, ErrStaleRequest
	}
	return req, nil
}

// BuyerCompleteReceipt lets the buyer close a LIBRARY_STORED room once the
// book has been picked up.
func (s *Service) BuyerCompleteReceipt(ctx context.Context, roomID, buyerID string) (*models.TradeRoom, error) {
	var room *models.TradeRoom
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.BuyerID != buyerID {
			return ErrNotBuyer
		}
		return setStatus(ctx, tx, room, models.StatusCompleted, BuyerReceipt)
	})
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, room, buyerID, BuyerReceipt)
	return room, nil
}

// UpdateLocation sets the drop-off location and locker. Blank values clear
// the field. Only the seller may change them, until the room completes.
func (s *Service) UpdateLocation(ctx context.Context, roomID, sellerID string, location, lockerNumber *string) (*models.TradeRoom, error) {
	location = normalize(location)
	lockerNumber = normalize(lockerNumber)
	if tooLong(location, config.MaxLocationLength) || tooLong(lockerNumber, config.MaxLockerNumberLength) {
		return nil, ErrLocationTooLong
	}

	var room *models.TradeRoom
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.SellerID != sellerID {
			return ErrNotSeller
		}
		if room.Status == models.StatusCompleted {
			return ErrInvalidState
		}

		err = tx.UpdateRoomLocation(ctx, roomID, location, lockerNumber)
		if errors.Is(err, storage.ErrConflict) {
			return ErrInvalidState
		}
		if err != nil {
			return fmt.Errorf("update room %s location: %w", roomID, err)
		}
		room.Location = location
		room.LockerNumber = lockerNumber
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := s.event(models.EventLocationUpdated, room, sellerID)
	if location != nil {
		ev.Text = *location
	}
	s.publish(ctx, ev)
	return room, nil
}

func (s *Service) statusChanged(ctx context.Context, room *models.TradeRoom, actorID string, m Mechanism) {
	metrics.TradeTransitions.WithLabelValues(string(room.Status), m.String()).Inc()
	s.logger.Info("trade status changed",
		zap.String("room_id", room.ID),
		zap.String("actor_id", actorID),
		zap.String("status", string(room.Status)),
		zap.Stringer("mechanism", m))
	s.publish(ctx, s.event(models.EventStatusChanged, room, actorID))
}

func normalize(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func tooLong(v *string, max int) bool {
	return v != nil && utf8.RuneCountInString(*v) > max
}
