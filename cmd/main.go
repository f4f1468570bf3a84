package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"seogaeum/backend/internal/api/handler"
	"seogaeum/backend/internal/books"
	"seogaeum/backend/internal/chathub"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/library"
	"seogaeum/backend/internal/localization"
	"seogaeum/backend/internal/storage"
	"seogaeum/backend/internal/telegram"
	"seogaeum/backend/internal/trade"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func setupDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect PostgreSQL", zap.Error(err))
	}
	if err := storage.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect Redis", zap.Error(err))
	}

	logger.Info("database and redis connections established")
	return db, rdb
}

// startTelegram connects the bot when a token is configured. It returns nil
// when notifications are disabled.
func startTelegram(ctx context.Context, cfg *config.Config, store storage.Storage, linker *telegram.Linker, logger *zap.Logger) *telegram.Notifier {
	if cfg.TelegramBotToken == "" {
		logger.Info("telegram bot token not set, notifications disabled")
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("failed to start telegram bot", zap.Error(err))
		return nil
	}
	localizer, err := localization.Bundled()
	if err != nil {
		logger.Fatal("failed to load locales", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()
	go telegram.NewBotService(bot, store, linker, localizer, logger).Run(ctx, updates)

	logger.Info("telegram bot started", zap.String("username", bot.Self.UserName))
	return telegram.NewNotifier(bot, store, localizer, logger)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, rdb := setupDependencies(ctx, cfg, logger)
	store := storage.NewStorageService(db, rdb)

	linker := telegram.NewLinker(store, config.TelegramLinkTTL)
	sinks := []trade.EventSink{store}
	if notifier := startTelegram(ctx, cfg, store, linker, logger); notifier != nil {
		go notifier.Run(ctx)
		sinks = append(sinks, notifier)
	}
	trades := trade.NewService(store, logger, sinks...)
	bookSvc := books.NewService(store, logger)

	gateway := library.NewGateway(cfg.Library, store, logger)
	aggregator := library.NewAggregator(store, gateway, logger)

	hub := chathub.NewManagerService(logger)
	go hub.Run(ctx)
	hub.StartPubSubListener(ctx, store.SubscribeRoomEvents(ctx))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	handler.NewHandler(trades, bookSvc, aggregator, store, linker, hub, cfg.JWTSecret, logger).Register(r)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	<-hub.Done()
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close", zap.Error(err))
	}
}
