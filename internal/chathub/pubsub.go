package chathub

import (
	"context"
	"encoding/json"
	"seogaeum/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartPubSubListener forwards events from the Redis room channels to the
// hub until ctx is cancelled, then closes the subscription.
func (m *ManagerService) StartPubSubListener(ctx context.Context, pubsub *redis.PubSub) {
	go func() {
		defer pubsub.Close()
		m.Listen(ctx, pubsub.Channel())
	}()
}

// Listen decodes room events from msgs and hands them to the hub.
func (m *ManagerService) Listen(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var ev models.TradeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				m.logger.Warn("invalid room event payload",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}

			select {
			case m.PubSubCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
