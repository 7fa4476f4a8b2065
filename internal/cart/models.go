package cart

import "time"

// Item is one cart row per (user, product). Total is maintained as
// Price * Quantity by every mutating operation.
type Item struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"not null;index:uniq_cart_user_product,unique,priority:1" json:"-"`
	ProductID   string    `gorm:"type:varchar(128);not null;index:uniq_cart_user_product,unique,priority:2" json:"product_id"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Total       float64   `gorm:"not null" json:"total"`
	ImageURL    string    `gorm:"type:varchar(512)" json:"image_url"`
	ProductURL  string    `gorm:"type:varchar(512)" json:"product_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Item) TableName() string { return "cart_items" }

type PurchaseStatus string

const (
	PurchaseCompleted PurchaseStatus = "completed"
)

// Purchase is immutable once written at checkout. All rows from one checkout
// share an OrderID.
type Purchase struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint64         `gorm:"not null;index" json:"-"`
	ProductID    string         `gorm:"type:varchar(128);not null" json:"product_id"`
	ProductName  string         `gorm:"type:varchar(255);not null" json:"product_name"`
	Price        float64        `gorm:"not null" json:"price"`
	Quantity     int            `gorm:"not null" json:"quantity"`
	Total        float64        `gorm:"not null" json:"total"`
	OrderID      string         `gorm:"type:varchar(36);not null;index" json:"order_id"`
	PurchaseDate time.Time      `gorm:"not null;index" json:"purchase_date"`
	Status       PurchaseStatus `gorm:"type:varchar(16);not null" json:"status"`
}

func (Purchase) TableName() string { return "purchases" }
