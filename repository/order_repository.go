package repository

import (
	"context"
	"errors"
	"time"

	"cartflow/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlacedOrder is the result of a committed checkout: the created order and
// any products whose stock the checkout pushed into the low-stock band.
type PlacedOrder struct {
	Order *models.Order
	// LowStock holds product snapshots with their post-decrement stock, for
	// products the decrement left at (0, LowStockThreshold].
	LowStock []models.Product
}

// OrderRepository defines data-access operations for orders, including the
// atomic cart-to-order conversion.
type OrderRepository interface {
	// CreateFromCart converts cart items into an order in one transaction:
	// order row, order items at current locked prices, stock decrements, and
	// cart clearing all commit or roll back together. Any insufficient stock
	// aborts the whole unit with an InsufficientStockError for the first
	// failing item.
	CreateFromCart(ctx context.Context, userID string, total decimal.Decimal, items []models.CartItem) (*PlacedOrder, error)
	FindByIDAndUserID(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error)
	// FindByDay returns all orders created in [dayStart, dayEnd), with items
	// and product snapshots preloaded.
	FindByDay(ctx context.Context, dayStart, dayEnd time.Time) ([]models.Order, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db       *gorm.DB
	products ProductRepository
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB, products ProductRepository) OrderRepository {
	return &GormOrderRepository{db: db, products: products}
}

func (r *GormOrderRepository) CreateFromCart(ctx context.Context, userID string, total decimal.Decimal, items []models.CartItem) (*PlacedOrder, error) {
	placed := &PlacedOrder{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := &models.Order{
			UserID: userID,
			Total:  total,
			Status: models.OrderStatusCompleted,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range items {
			// Row lock closes the race between the stock check and the
			// decrement: concurrent checkouts serialize per product here.
			product, err := r.products.LockForUpdate(tx, item.ProductID)
			if err != nil {
				return err
			}

			if product.StockQuantity < item.Quantity {
				// First failing item aborts the whole unit of work.
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   item.Quantity,
					Available:   product.StockQuantity,
				}
			}

			orderItem := &models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price,
			}
			if err := tx.Create(orderItem).Error; err != nil {
				return err
			}

			newStock, err := r.products.DecrementStock(tx, product, item.Quantity)
			if err != nil {
				return err
			}

			if newStock > 0 && newStock <= LowStockThreshold {
				snapshot := *product
				snapshot.StockQuantity = newStock
				placed.LowStock = append(placed.LowStock, snapshot)
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		var created models.Order
		if err := tx.Preload("OrderItems.Product").First(&created, "id = ?", order.ID).Error; err != nil {
			return err
		}
		placed.Order = &created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return placed, nil
}

func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems.Product").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindByDay(ctx context.Context, dayStart, dayEnd time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems.Product").
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Order("created_at").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
