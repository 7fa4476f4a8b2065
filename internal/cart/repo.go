package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

var ErrEmptyCart = errors.New("cart is empty")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CartItems returns the user's cart, oldest first.
func (r *Repo) CartItems(ctx context.Context, userID uint64) ([]Item, error) {
	var items []Item
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertCartItem adds qty of a product to the user's cart. An existing row
// for the same (user, product) has its quantity incremented and its total
// recomputed inside one transaction; concurrent adds must not lose updates,
// so the row is locked on engines that support it.
func (r *Repo) UpsertCartItem(ctx context.Context, userID uint64, p catalog.ProductRef, qty int) (*Item, error) {
	if qty < 1 {
		qty = 1
	}

	var out *Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("user_id = ? AND product_id = ?", userID, p.ID)
		if tx.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var item Item
		err := q.First(&item).Error
		switch {
		case err == nil:
			item.Quantity += qty
			item.Total = item.Price * float64(item.Quantity)
			if err := tx.Model(&Item{}).Where("id = ?", item.ID).
				Updates(map[string]any{
					"quantity": item.Quantity,
					"total":    item.Total,
				}).Error; err != nil {
				return err
			}
			out = &item
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			item = Item{
				UserID:      userID,
				ProductID:   p.ID,
				ProductName: p.Title,
				Description: p.Description,
				Price:       p.Price,
				Quantity:    qty,
				Total:       p.Price * float64(qty),
				ImageURL:    p.ImageURL,
				ProductURL:  p.URL,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			out = &item
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetQuantity replaces an item's quantity and recomputes its total.
func (r *Repo) SetQuantity(ctx context.Context, userID, itemID uint64, qty int) (*Item, error) {
	if qty < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	var out Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&out).Error; err != nil {
			return err
		}
		out.Quantity = qty
		out.Total = out.Price * float64(qty)
		return tx.Model(&Item{}).Where("id = ?", out.ID).
			Updates(map[string]any{
				"quantity": out.Quantity,
				"total":    out.Total,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) DeleteCartItem(ctx context.Context, userID, itemID uint64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveNewestCartItem deletes the most recently added item and returns it.
func (r *Repo) RemoveNewestCartItem(ctx context.Context, userID uint64) (*Item, error) {
	var out Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Order("id DESC").
			First(&out).Error; err != nil {
			return err
		}
		return tx.Delete(&Item{}, out.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ClearCart(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Item{}).Error
}

// PurchaseHistory returns the user's purchases, newest first. A negative
// limit returns the whole history; zero or an out-of-range limit falls back
// to 50.
func (r *Repo) PurchaseHistory(ctx context.Context, userID uint64, limit int) ([]Purchase, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchase_date DESC, id DESC")
	if limit >= 0 {
		if limit == 0 || limit > 100 {
			limit = 50
		}
		q = q.Limit(limit)
	}
	var out []Purchase
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Checkout converts the whole cart into purchase rows sharing one order id,
// then clears the cart, all in one transaction.
func (r *Repo) Checkout(ctx context.Context, userID uint64) (string, []Purchase, error) {
	orderID := uuid.NewString()
	now := time.Now()

	var purchases []Purchase
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []Item
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		purchases = make([]Purchase, 0, len(items))
		for _, it := range items {
			purchases = append(purchases, Purchase{
				UserID:       userID,
				ProductID:    it.ProductID,
				ProductName:  it.ProductName,
				Price:        it.Price,
				Quantity:     it.Quantity,
				Total:        it.Total,
				OrderID:      orderID,
				PurchaseDate: now,
				Status:       PurchaseCompleted,
			})
		}
		if err := tx.Create(&purchases).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&Item{}).Error
	})
	if err != nil {
		return "", nil, err
	}
	return orderID, purchases, nil
}
