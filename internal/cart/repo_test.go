package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

func openTestDB(t *testing.T) *Repo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Item{}, &Purchase{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return NewRepo(db)
}

var (
	tee  = catalog.ProductRef{ID: "p1", Title: "Tee", Price: 10, Currency: "USD"}
	polo = catalog.ProductRef{ID: "p2", Title: "Polo", Price: 35, Currency: "USD"}
)

func TestUpsertCartItem_MergesSameProduct(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	if _, err := repo.UpsertCartItem(ctx, 1, tee, 1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	item, err := repo.UpsertCartItem(ctx, 1, tee, 1)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if item.Quantity != 2 || item.Total != 20 {
		t.Fatalf("expected quantity 2 total 20, got %+v", item)
	}

	items, err := repo.CartItems(ctx, 1)
	if err != nil {
		t.Fatalf("cart items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("same product must merge into one row, got %d", len(items))
	}
	if items[0].Total != items[0].Price*float64(items[0].Quantity) {
		t.Fatalf("total out of sync: %+v", items[0])
	}
}

func TestUpsertCartItem_ZeroQuantityDefaultsToOne(t *testing.T) {
	repo := openTestDB(t)

	item, err := repo.UpsertCartItem(context.Background(), 1, tee, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 1 || item.Total != 10 {
		t.Fatalf("expected quantity 1 total 10, got %+v", item)
	}
}

func TestUpsertCartItem_PerUserIsolation(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	if _, err := repo.UpsertCartItem(ctx, 1, tee, 1); err != nil {
		t.Fatalf("user 1 add: %v", err)
	}
	if _, err := repo.UpsertCartItem(ctx, 2, tee, 5); err != nil {
		t.Fatalf("user 2 add: %v", err)
	}

	items, err := repo.CartItems(ctx, 1)
	if err != nil {
		t.Fatalf("cart items: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("user 1 cart polluted: %+v", items)
	}
}

func TestSetQuantity_RecomputesTotal(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	added, err := repo.UpsertCartItem(ctx, 1, tee, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	item, err := repo.SetQuantity(ctx, 1, added.ID, 7)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if item.Quantity != 7 || item.Total != 70 {
		t.Fatalf("expected quantity 7 total 70, got %+v", item)
	}

	if _, err := repo.SetQuantity(ctx, 1, added.ID, 0); err == nil {
		t.Fatalf("quantity below one must be rejected")
	}
	if _, err := repo.SetQuantity(ctx, 2, added.ID, 3); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("other user's item must not be reachable, got %v", err)
	}
}

func TestDeleteCartItem(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	added, err := repo.UpsertCartItem(ctx, 1, tee, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.DeleteCartItem(ctx, 1, added.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteCartItem(ctx, 1, added.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleting a missing item should report not found, got %v", err)
	}
}

func TestRemoveNewestCartItem(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	if _, err := repo.UpsertCartItem(ctx, 1, tee, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.UpsertCartItem(ctx, 1, polo, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	removed, err := repo.RemoveNewestCartItem(ctx, 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.ProductID != "p2" {
		t.Fatalf("expected newest item p2 removed, got %+v", removed)
	}

	items, err := repo.CartItems(ctx, 1)
	if err != nil {
		t.Fatalf("cart items: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != "p1" {
		t.Fatalf("unexpected remaining cart: %+v", items)
	}

	if _, err := repo.RemoveNewestCartItem(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := repo.RemoveNewestCartItem(ctx, 1); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	if _, err := repo.UpsertCartItem(ctx, 1, tee, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.UpsertCartItem(ctx, 1, polo, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	orderID, purchases, err := repo.Checkout(ctx, 1)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if orderID == "" {
		t.Fatalf("expected an order id")
	}
	if len(purchases) != 2 {
		t.Fatalf("expected 2 purchase rows, got %d", len(purchases))
	}
	for _, p := range purchases {
		if p.OrderID != orderID {
			t.Fatalf("all rows must share the order id: %+v", p)
		}
		if p.Status != PurchaseCompleted {
			t.Fatalf("unexpected status: %+v", p)
		}
		if p.Total != p.Price*float64(p.Quantity) {
			t.Fatalf("total out of sync: %+v", p)
		}
	}

	items, err := repo.CartItems(ctx, 1)
	if err != nil {
		t.Fatalf("cart items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("cart must be cleared after checkout, got %+v", items)
	}

	if _, _, err := repo.Checkout(ctx, 1); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart on second checkout, got %v", err)
	}
}

func TestPurchaseHistory_NegativeLimitReturnsAll(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-60 * 24 * time.Hour)
	for i := 0; i < 60; i++ {
		p := Purchase{
			UserID:      1,
			ProductID:   fmt.Sprintf("p%d", i),
			ProductName: fmt.Sprintf("Item %d", i),
			Price:       10, Quantity: 1, Total: 10,
			OrderID:      fmt.Sprintf("order-%d", i),
			PurchaseDate: base.Add(time.Duration(i) * 24 * time.Hour),
			Status:       PurchaseCompleted,
		}
		if err := repo.db.Create(&p).Error; err != nil {
			t.Fatalf("seed purchase: %v", err)
		}
	}

	capped, err := repo.PurchaseHistory(ctx, 1, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(capped) != 50 {
		t.Fatalf("zero limit should fall back to 50, got %d", len(capped))
	}

	all, err := repo.PurchaseHistory(ctx, 1, -1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 60 {
		t.Fatalf("negative limit should return all 60 records, got %d", len(all))
	}
}

func TestPurchaseHistory_NewestFirst(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	if _, err := repo.UpsertCartItem(ctx, 1, tee, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := repo.Checkout(ctx, 1); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if _, err := repo.UpsertCartItem(ctx, 1, polo, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := repo.Checkout(ctx, 1); err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	history, err := repo.PurchaseHistory(ctx, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].ProductID != "p2" || history[1].ProductID != "p1" {
		t.Fatalf("history must be newest first: %+v", history)
	}
}
