package trade

import (
	"context"
	"fmt"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/models"
	"strings"
	"unicode/utf8"
)

// PostMessage appends a chat line to the room.
func (s *Service) PostMessage(ctx context.Context, roomID, senderID, text string) (*models.TradeMessage, error) {
	room, err := s.participantRoom(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > config.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := &models.TradeMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  text,
	}
	if err := s.store.SaveTradeMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message in %s: %w", roomID, err)
	}

	ev := s.event(models.EventMessagePosted, room, senderID)
	ev.MessageID = msg.ID
	ev.Text = msg.Content
	s.publish(ctx, ev)
	return msg, nil
}

// ListMessages returns the room's messages oldest first.
func (s *Service) ListMessages(ctx context.Context, roomID, userID string) ([]models.TradeMessage, error) {
	if _, err := s.participantRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListTradeMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", roomID, err)
	}
	return msgs, nil
}
