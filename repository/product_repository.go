package repository

import (
	"context"
	"errors"

	"cartflow/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LowStockThreshold is the stock level at or below which (but above zero) a
// decrement schedules a low-stock notification.
const LowStockThreshold = 5

// ProductRepository is the inventory ledger: it owns product reads and the
// only write paths for stock_quantity.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// CheckAvailable reports whether the product currently has at least qty
	// units. Advisory only: checkout re-validates under its own transaction.
	CheckAvailable(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// LockForUpdate fetches the product row with a row-level exclusive lock.
	// Must be called inside a transaction.
	LockForUpdate(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	// DecrementStock reduces stock_quantity by qty, re-validating at write
	// time. Returns the post-decrement stock. Must be called inside a
	// transaction, after LockForUpdate on the same row.
	DecrementStock(tx *gorm.DB, product *models.Product, qty int) (int, error)
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) CheckAvailable(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return p.StockQuantity >= qty, nil
}

func (r *GormProductRepository) LockForUpdate(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) DecrementStock(tx *gorm.DB, product *models.Product, qty int) (int, error) {
	// Conditional update re-checks stock at write time; RowsAffected == 0
	// means the row no longer has enough units.
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", product.ID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   product.StockQuantity,
		}
	}
	return product.StockQuantity - qty, nil
}

func (r *GormProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
