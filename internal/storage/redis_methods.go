package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomChannel is the pub/sub channel carrying the events of one room.
func RoomChannel(roomID string) string {
	return config.RoomEventChannelPrefix + roomID
}

// Publish sends a committed trade event to the room's Redis channel.
func (s *Service) Publish(ctx context.Context, event models.TradeEvent) error {
	if s.Redis == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(ctx, RoomChannel(event.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("publish room event: %w", err)
	}
	return nil
}

// SubscribeRoomEvents subscribes to the channels of every room.
func (s *Service) SubscribeRoomEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.PSubscribe(ctx, config.RoomEventChannelPrefix+"*")
}

// GetCached reads a cached value. A miss is reported with ok=false.
func (s *Service) GetCached(ctx context.Context, key string) ([]byte, bool, error) {
	if s.Redis == nil {
		return nil, false, nil
	}

	b, err := s.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Service) SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Set(ctx, key, value, ttl).Err()
}
