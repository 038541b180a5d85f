package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatusCompleted is the only order status: orders are created in their
// terminal state and never transition afterwards.
const OrderStatusCompleted = "completed"

// Product represents a catalog item stored in Postgres. StockQuantity is
// only ever mutated through the product repository's decrement/increment
// operations.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CartItem is one (user, product) line in a cart. A user has at most one row
// per product; repeated adds merge into the existing row's quantity.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// Order is immutable once created: total and item prices are frozen at
// checkout time and do not follow later product price changes.
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Total      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status     string          `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	OrderItems []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

// OrderItem captures quantity and the product's price as of checkout.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// AddItemRequest is the payload for POST /cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1"`
}

// UpdateQuantityRequest is the payload for PATCH /cart/:id.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartResponse is returned by cart reads: the items plus a live total
// computed from current product prices.
type CartResponse struct {
	CartItems []CartItem      `json:"cart_items"`
	Total     decimal.Decimal `json:"total"`
}

// OrderCompletedEvent is published to Kafka after a checkout commits.
type OrderCompletedEvent struct {
	EventType string          `json:"event_type"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	Timestamp time.Time       `json:"timestamp"`
}
