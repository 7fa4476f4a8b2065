package chat

import (
	"context"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

// How far back the focus-product scan looks.
const focusScanLimit = 25

// ProductResolver infers "the product under discussion" for messages that
// reference one without naming it ("buy it", "have I bought this?").
type ProductResolver struct {
	store Storage
}

func NewProductResolver(store Storage) *ProductResolver {
	return &ProductResolver{store: store}
}

// FocusProduct returns the first product attached to the most recent
// assistant message that carries one, or nil when no recent turn showed a
// product.
func (r *ProductResolver) FocusProduct(ctx context.Context, sessionID string) (*catalog.ProductRef, error) {
	msgs, err := r.store.RecentMessages(ctx, sessionID, focusScanLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.Role == RoleAssistant && len(m.Products) > 0 {
			p := m.Products[0]
			return &p, nil
		}
	}
	return nil, nil
}
