package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cartflow/models"
	"cartflow/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderEventPublisher publishes order lifecycle events to an external broker.
// Publishing is best-effort: a failure must never fail the checkout.
type OrderEventPublisher interface {
	PublishOrderCompleted(ctx context.Context, event models.OrderCompletedEvent) error
}

// CheckoutService converts a user's cart into an order atomically.
type CheckoutService interface {
	Checkout(ctx context.Context, userID string) (*models.Order, *ServiceError)
}

type checkoutServiceImpl struct {
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	notifier  NotificationService
	publisher OrderEventPublisher // optional
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. publisher may be nil
// when no broker is configured.
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	notifier NotificationService,
	publisher OrderEventPublisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout loads the cart, computes the total from current prices, and runs
// the atomic cart-to-order conversion. Either the whole order commits
// (order, items, stock decrements, cart cleared) or nothing does. Low-stock
// notifications and the order event fire only after the commit.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID string) (*models.Order, *ServiceError) {
	items, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart for checkout", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Checkout failed"}
	}
	if len(items) == 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Cart is empty"}
	}

	// Order total as of checkout time, not a cached cart quote.
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			s.logger.Error("Cart item without product snapshot",
				zap.String("user_id", userID),
				zap.String("item_id", item.ID.String()),
			)
			return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Checkout failed"}
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	placed, err := s.orderRepo.CreateFromCart(ctx, userID, total, items)
	if err != nil {
		if ise, ok := repository.IsInsufficientStock(err); ok {
			return nil, &ServiceError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Not enough stock for %s", ise.ProductName),
			}
		}
		s.logger.Error("Checkout transaction failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Checkout failed"}
	}

	s.logger.Info("Order placed",
		zap.String("user_id", userID),
		zap.String("order_id", placed.Order.ID.String()),
		zap.String("total", placed.Order.Total.StringFixed(2)),
	)

	// Side effects only after commit, detached from the request context so
	// they can neither block nor fail the checkout.
	for _, product := range placed.LowStock {
		go s.notifyLowStock(product)
	}
	if s.publisher != nil {
		go s.publishOrderCompleted(placed.Order)
	}

	return placed.Order, nil
}

func (s *checkoutServiceImpl) notifyLowStock(product models.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.notifier.NotifyLowStock(ctx, product); err != nil {
		s.logger.Warn("Low-stock notification failed",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *checkoutServiceImpl) publishOrderCompleted(order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	itemCount := 0
	for _, item := range order.OrderItems {
		itemCount += item.Quantity
	}

	event := models.OrderCompletedEvent{
		EventType: "order.completed",
		OrderID:   order.ID.String(),
		UserID:    order.UserID,
		Total:     order.Total,
		ItemCount: itemCount,
		Timestamp: time.Now(),
	}
	if err := s.publisher.PublishOrderCompleted(ctx, event); err != nil {
		s.logger.Warn("Order event publish failed",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
