// Package books manages who owns or wants a book and the book's public
// discussion thread.
package books

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"seogaeum/backend/internal/trade"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNegativePrice = trade.NewError(trade.KindValidation, "price must not be negative")
	ErrNotOwner      = trade.NewError(trade.KindNotFound, "user does not own this book")
)

type Service struct {
	store  storage.Storage
	logger *zap.Logger
}

func NewService(store storage.Storage, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) book(ctx context.Context, isbn string) (*models.Book, error) {
	book, err := s.store.GetBookByISBN(ctx, isbn)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, trade.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", isbn, err)
	}
	return book, nil
}

// RegisterOwnership records that userID owns the book. A positive price
// offers it for sale; zero keeps it in the user's shelf only. Registering
// again updates the price.
func (s *Service) RegisterOwnership(ctx context.Context, isbn, userID string, price decimal.Decimal) (*models.Ownership, error) {
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}
	book, err := s.book(ctx, isbn)
	if err != nil {
		return nil, err
	}

	o := &models.Ownership{BookID: book.ID, UserID: userID, Price: price.Round(2)}
	if err := s.store.UpsertOwnership(ctx, o); err != nil {
		return nil, fmt.Errorf("save ownership: %w", err)
	}
	s.logger.Info("ownership registered",
		zap.String("isbn", isbn),
		zap.String("user_id", userID),
		zap.String("price", o.Price.String()))
	return o, nil
}

func (s *Service) RemoveOwnership(ctx context.Context, isbn, userID string) error {
	book, err := s.book(ctx, isbn)
	if err != nil {
		return err
	}
	removed, err := s.store.DeleteOwnership(ctx, book.ID, userID)
	if err != nil {
		return fmt.Errorf("delete ownership: %w", err)
	}
	if !removed {
		return ErrNotOwner
	}
	return nil
}

// FindSeller returns the owner a new trade room for the book would open
// with.
func (s *Service) FindSeller(ctx context.Context, isbn string) (*models.Ownership, error) {
	book, err := s.book(ctx, isbn)
	if err != nil {
		return nil, err
	}
	o, err := s.store.FindSeller(ctx, book.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, trade.ErrNoOwnerAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("find seller: %w", err)
	}
	return o, nil
}

// ToggleWish flips the wish mark and reports whether the book is wished now.
func (s *Service) ToggleWish(ctx context.Context, isbn, userID string) (bool, error) {
	book, err := s.book(ctx, isbn)
	if err != nil {
		return false, err
	}
	wished, err := s.store.ToggleWish(ctx, book.ID, userID)
	if err != nil {
		return false, fmt.Errorf("toggle wish: %w", err)
	}
	return wished, nil
}

func (s *Service) PostMessage(ctx context.Context, isbn, userID, text string) (*models.BookMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, trade.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > config.MaxMessageLength {
		return nil, trade.ErrMessageTooLong
	}
	book, err := s.book(ctx, isbn)
	if err != nil {
		return nil, err
	}

	msg := &models.BookMessage{BookID: book.ID, UserID: userID, Content: text}
	if err := s.store.SaveBookMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save book message: %w", err)
	}
	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, isbn string) ([]models.BookMessage, error) {
	book, err := s.book(ctx, isbn)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListBookMessages(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list book messages: %w", err)
	}
	return msgs, nil
}
