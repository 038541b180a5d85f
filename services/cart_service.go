package services

import (
	"context"
	"errors"
	"net/http"

	"cartflow/models"
	"cartflow/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService defines the business logic for cart mutations. All stock
// checks here are advisory: checkout re-validates under its own transaction,
// because stock can change between a cart write and the checkout.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.CartResponse, *ServiceError)
	AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*models.CartItem, *ServiceError)
	UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*models.CartItem, *ServiceError)
	RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) *ServiceError
	Clear(ctx context.Context, userID string) *ServiceError
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetCart returns the user's cart items with a live total computed from
// current product prices. The total is a quote, not a locked-in amount.
func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*models.CartResponse, *ServiceError) {
	items, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load cart"}
	}
	if items == nil {
		items = []models.CartItem{}
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return &models.CartResponse{CartItems: items, Total: total}, nil
}

// AddItem adds quantity units of a product to the cart, merging into an
// existing line if one exists. Rejected with 400 when the merged quantity
// exceeds current stock.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*models.CartItem, *ServiceError) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Product not found"}
		}
		s.logger.Error("Failed to load product", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load product"}
	}

	if product.StockQuantity < quantity {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Not enough stock available"}
	}

	existing, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	switch {
	case err == nil:
		newQuantity := existing.Quantity + quantity
		if product.StockQuantity < newQuantity {
			return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Not enough stock available"}
		}
		if err := s.cartRepo.UpdateQuantity(ctx, existing.ID, newQuantity); err != nil {
			s.logger.Error("Failed to update cart item", zap.String("item_id", existing.ID.String()), zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update cart"}
		}
		return s.reload(ctx, existing.ID)

	case errors.Is(err, repository.ErrCartItemNotFound):
		item := &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := s.cartRepo.Create(ctx, item); err != nil {
			s.logger.Error("Failed to create cart item", zap.String("user_id", userID), zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update cart"}
		}
		return s.reload(ctx, item.ID)

	default:
		s.logger.Error("Cart lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update cart"}
	}
}

// UpdateQuantity sets an item's quantity. 403 when the item belongs to a
// different user, 400 when the new quantity exceeds current stock.
func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*models.CartItem, *ServiceError) {
	if quantity < 1 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Quantity must be at least 1"}
	}

	item, svcErr := s.ownedItem(ctx, userID, itemID)
	if svcErr != nil {
		return nil, svcErr
	}

	available, err := s.productRepo.CheckAvailable(ctx, item.ProductID, quantity)
	if err != nil {
		s.logger.Error("Stock check failed", zap.String("product_id", item.ProductID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update cart"}
	}
	if !available {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Not enough stock available"}
	}

	if err := s.cartRepo.UpdateQuantity(ctx, itemID, quantity); err != nil {
		s.logger.Error("Failed to update cart item", zap.String("item_id", itemID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update cart"}
	}

	return s.reload(ctx, itemID)
}

// RemoveItem deletes a cart item. A repeated remove of the same id is a
// not-found condition, not a failure of the service.
func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) *ServiceError {
	if _, svcErr := s.ownedItem(ctx, userID, itemID); svcErr != nil {
		return svcErr
	}

	if err := s.cartRepo.Delete(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return &ServiceError{StatusCode: http.StatusNotFound, Message: "Cart item not found"}
		}
		s.logger.Error("Failed to remove cart item", zap.String("item_id", itemID.String()), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update cart"}
	}
	return nil
}

// Clear removes every cart item for the user; a no-op on an empty cart.
func (s *cartServiceImpl) Clear(ctx context.Context, userID string) *ServiceError {
	if err := s.cartRepo.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to clear cart"}
	}
	return nil
}

func (s *cartServiceImpl) ownedItem(ctx context.Context, userID string, itemID uuid.UUID) (*models.CartItem, *ServiceError) {
	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Cart item not found"}
		}
		s.logger.Error("Cart item lookup failed", zap.String("item_id", itemID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load cart item"}
	}
	if item.UserID != userID {
		return nil, &ServiceError{StatusCode: http.StatusForbidden, Message: "Unauthorized"}
	}
	return item, nil
}

func (s *cartServiceImpl) reload(ctx context.Context, itemID uuid.UUID) (*models.CartItem, *ServiceError) {
	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		s.logger.Error("Failed to reload cart item", zap.String("item_id", itemID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load cart item"}
	}
	return item, nil
}
