package telegram

import (
	"context"
	"errors"
	"fmt"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidLink is returned for link codes that are unknown, already used
// or expired.
var ErrInvalidLink = errors.New("telegram: link code is invalid or expired")

// LinkStore keeps the single-use codes that link a chat to a user.
type LinkStore interface {
	CreateTelegramLink(ctx context.Context, link *models.TelegramLink) error
	ConsumeTelegramLink(ctx context.Context, code string) (*models.TelegramLink, error)
}

// Linker issues link codes to authenticated users and redeems them for the
// bot. Codes fit a Telegram deep-link payload (t.me/<bot>?start=<code>).
type Linker struct {
	links LinkStore
	ttl   time.Duration
	now   func() time.Time
}

func NewLinker(links LinkStore, ttl time.Duration) *Linker {
	return &Linker{links: links, ttl: ttl, now: time.Now}
}

// Issue creates a new code for userID, replacing any earlier one.
func (l *Linker) Issue(ctx context.Context, userID string) (*models.TelegramLink, error) {
	link := &models.TelegramLink{
		Code:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    userID,
		ExpiresAt: l.now().Add(l.ttl).UTC(),
	}
	if err := l.links.CreateTelegramLink(ctx, link); err != nil {
		return nil, fmt.Errorf("create telegram link: %w", err)
	}
	return link, nil
}

// Redeem consumes code and returns the user it was issued to.
func (l *Linker) Redeem(ctx context.Context, code string) (string, error) {
	link, err := l.links.ConsumeTelegramLink(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidLink
	}
	if err != nil {
		return "", fmt.Errorf("consume telegram link: %w", err)
	}
	if !l.now().Before(link.ExpiresAt) {
		return "", ErrInvalidLink
	}
	return link.UserID, nil
}
