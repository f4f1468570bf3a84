package telegram

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/localization"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	previewLength = 80
	queueSize     = 256
	lookupTimeout = 5 * time.Second
)

// Sender is the part of *tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserStore resolves and links users to Telegram chats.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// Notifier tells the other participant of a trade room about changes
// through Telegram. Users without a linked chat are skipped.
type Notifier struct {
	bot       Sender
	users     UserStore
	localizer *localization.Localizer
	logger    *zap.Logger
	queue     chan models.TradeEvent
}

func NewNotifier(bot Sender, users UserStore, localizer *localization.Localizer, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:       bot,
		users:     users,
		localizer: localizer,
		logger:    logger,
		queue:     make(chan models.TradeEvent, queueSize),
	}
}

// Publish implements trade.EventSink. It only queues the event for Run, so
// a slow or unreachable Telegram API never holds up a trade operation. When
// the queue is full the event is dropped.
func (n *Notifier) Publish(ctx context.Context, ev models.TradeEvent) error {
	if ev.Recipient() == "" {
		return nil
	}
	select {
	case n.queue <- ev:
	default:
		n.logger.Warn("notification queue full, dropping event",
			zap.String("room_id", ev.RoomID),
			zap.String("kind", string(ev.Kind)))
	}
	return nil
}

// Run delivers queued events one by one until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.queue:
			n.Deliver(ctx, ev)
		}
	}
}

// Deliver sends ev to the recipient's linked chat. Problems are logged only.
func (n *Notifier) Deliver(ctx context.Context, ev models.TradeEvent) {
	recipient := ev.Recipient()
	if recipient == "" {
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	user, err := n.users.GetUserByID(lookupCtx, recipient)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		n.logger.Warn("notification recipient lookup failed", zap.String("user_id", recipient), zap.Error(err))
		return
	}
	if user.TelegramChatID == nil {
		return
	}

	text, ok := n.render(user.LanguageCode, ev)
	if !ok {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(*user.TelegramChatID, text)); err != nil {
		n.logger.Warn("telegram notification failed",
			zap.String("user_id", recipient),
			zap.String("room_id", ev.RoomID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err))
	}
	return
}

// render builds the notification text, or reports false for events that
// are not worth a message.
func (n *Notifier) render(lang string, ev models.TradeEvent) (string, bool) {
	switch ev.Kind {
	case models.EventRoomCreated:
		return n.localizer.GetString(lang, "notify.room_created"), true
	case models.EventRequestProposed:
		return n.localizer.Format(lang, "notify.request_proposed", n.status(lang, ev.Target)), true
	case models.EventRequestResolved:
		// Acceptance is announced by the status change that follows it.
		if ev.State != models.RequestRejected {
			return "", false
		}
		return n.localizer.Format(lang, "notify.request_rejected", n.status(lang, ev.Target)), true
	case models.EventStatusChanged:
		return n.localizer.Format(lang, "notify.status_changed", n.status(lang, ev.Status)), true
	case models.EventLocationUpdated:
		return n.localizer.Format(lang, "notify.location_updated", ev.Text), true
	case models.EventMessagePosted:
		return n.localizer.Format(lang, "notify.message_posted", preview(ev.Text)), true
	}
	return "", false
}

func (n *Notifier) status(lang string, s models.TradeStatus) string {
	return n.localizer.GetString(lang, fmt.Sprintf("status.%s", s))
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	r := []rune(text)
	return string(r[:previewLength]) + "…"
}
