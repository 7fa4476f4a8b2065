package chat

import (
	"context"

	"github.com/suPer8Hu/shopchat/internal/cart"
	"github.com/suPer8Hu/shopchat/internal/catalog"
)

// Storage is everything the chat pipeline needs from persistence. The
// implementation must make UpsertCartItem an atomic read-modify-write
// (transaction with row serialization) so concurrent adds for the same
// (user, product) do not lose updates.
type Storage interface {
	FindSession(ctx context.Context, userID uint64, sessionID string) (*Session, error)
	LatestSession(ctx context.Context, userID uint64) (*Session, error)
	CreateSession(ctx context.Context, userID uint64) (*Session, error)
	TouchSession(ctx context.Context, sessionID string) error

	// RecentMessages returns up to limit messages, newest first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	AppendMessage(ctx context.Context, m *Message) error

	CartItems(ctx context.Context, userID uint64) ([]cart.Item, error)
	UpsertCartItem(ctx context.Context, userID uint64, p catalog.ProductRef, qty int) (*cart.Item, error)
	RemoveNewestCartItem(ctx context.Context, userID uint64) (*cart.Item, error)

	// PurchaseHistory returns up to limit records, newest first. A negative
	// limit returns all records.
	PurchaseHistory(ctx context.Context, userID uint64, limit int) ([]cart.Purchase, error)
}
