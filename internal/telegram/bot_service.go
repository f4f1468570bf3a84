// Package telegram delivers trade notifications through the Telegram Bot API
// and lets users link their chat to their account.
package telegram

import (
	"context"
	"errors"
	"seogaeum/backend/internal/localization"
	"seogaeum/backend/internal/storage"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// BotService handles the bot's own commands:
//
//	/start <code>     link this chat to the account (deep link from the app)
//	/stop             unlink
//	/language <code>  choose the notification language
type BotService struct {
	bot       Sender
	users     UserStore
	linker    *Linker
	localizer *localization.Localizer
	logger    *zap.Logger
}

func NewBotService(bot Sender, users UserStore, linker *Linker, localizer *localization.Localizer, logger *zap.Logger) *BotService {
	return &BotService{
		bot:       bot,
		users:     users,
		linker:    linker,
		localizer: localizer,
		logger:    logger,
	}
}

// Run processes updates until ctx is cancelled or updates is closed.
func (s *BotService) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			s.HandleCommand(ctx, update.Message)
		}
	}
}

// HandleCommand dispatches one command message.
func (s *BotService) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		if args == "" {
			s.reply(chatID, localization.DefaultLanguage, "bot.help")
			return
		}
		s.link(ctx, chatID, args)
	case "stop":
		s.unlink(ctx, chatID)
	case "language":
		s.setLanguage(ctx, chatID, args)
	default:
		s.reply(chatID, localization.DefaultLanguage, "bot.help")
	}
}

// link redeems a code issued by the app. A bare user id is not a code and
// never links a chat.
func (s *BotService) link(ctx context.Context, chatID int64, code string) {
	userID, err := s.linker.Redeem(ctx, code)
	if errors.Is(err, ErrInvalidLink) {
		s.reply(chatID, localization.DefaultLanguage, "bot.link_failed")
		return
	}
	if err != nil {
		s.logger.Error("failed to redeem telegram link", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		s.reply(chatID, localization.DefaultLanguage, "bot.link_failed")
		return
	}
	if err != nil {
		s.logger.Error("failed to load user for linking", zap.String("user_id", userID), zap.Error(err))
		return
	}

	user.TelegramChatID = &chatID
	if err := s.users.SaveUser(ctx, user); err != nil {
		s.logger.Error("failed to link telegram chat", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.logger.Info("telegram chat linked", zap.String("user_id", userID), zap.Int64("chat_id", chatID))
	s.reply(chatID, user.LanguageCode, "bot.linked")
}

func (s *BotService) unlink(ctx context.Context, chatID int64) {
	user, err := s.users.GetUserByTelegramChatID(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		s.reply(chatID, localization.DefaultLanguage, "bot.unlinked")
		return
	}
	if err != nil {
		s.logger.Error("failed to load user for unlinking", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	user.TelegramChatID = nil
	if err := s.users.SaveUser(ctx, user); err != nil {
		s.logger.Error("failed to unlink telegram chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	s.reply(chatID, user.LanguageCode, "bot.unlinked")
}

func (s *BotService) setLanguage(ctx context.Context, chatID int64, lang string) {
	user, err := s.users.GetUserByTelegramChatID(ctx, chatID)
	if err != nil {
		s.reply(chatID, localization.DefaultLanguage, "bot.help")
		return
	}
	if !s.supported(lang) {
		s.reply(chatID, user.LanguageCode, "bot.help")
		return
	}

	user.LanguageCode = lang
	if err := s.users.SaveUser(ctx, user); err != nil {
		s.logger.Error("failed to update language", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	s.reply(chatID, lang, "bot.linked")
}

func (s *BotService) supported(lang string) bool {
	for _, l := range s.localizer.Languages() {
		if l == lang {
			return true
		}
	}
	return false
}

func (s *BotService) reply(chatID int64, lang, key string) {
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, s.localizer.GetString(lang, key))); err != nil {
		s.logger.Warn("telegram reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
