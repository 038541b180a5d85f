package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"cartflow/models"
	"cartflow/repository"
	"cartflow/sender"
	"cartflow/suppression"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	lowStockTemplate = "low_stock_alert.html"
	digestTemplate   = "daily_sales_report.html"
)

// NotificationService produces the two operator notifications: per-product
// low-stock alerts (deduplicated via the suppression store) and the daily
// sales digest. Failures here are logged by callers and never propagate into
// the checkout path.
type NotificationService interface {
	NotifyLowStock(ctx context.Context, product models.Product) error
	SendDailyDigest(ctx context.Context, now time.Time) error
}

type notificationServiceImpl struct {
	orderRepo      repository.OrderRepository
	store          suppression.Store
	email          sender.EmailSender
	recipient      string
	suppressionTTL time.Duration
	location       *time.Location
	templates      *template.Template
	logger         *zap.Logger
}

// NewNotificationService creates a new NotificationService. recipient is the
// operator address all notifications are routed to.
func NewNotificationService(
	orderRepo repository.OrderRepository,
	store suppression.Store,
	email sender.EmailSender,
	recipient string,
	suppressionTTL time.Duration,
	location *time.Location,
	logger *zap.Logger,
) (NotificationService, error) {
	if recipient == "" {
		return nil, fmt.Errorf("operator recipient not set")
	}
	if location == nil {
		location = time.Local
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}

	return &notificationServiceImpl{
		orderRepo:      orderRepo,
		store:          store,
		email:          email,
		recipient:      recipient,
		suppressionTTL: suppressionTTL,
		location:       location,
		templates:      tmpl,
		logger:         logger,
	}, nil
}

type lowStockEmailData struct {
	Name        string
	Description string
	Price       string
	Stock       int
}

type digestEmailData struct {
	Date         string
	TotalOrders  int
	TotalItems   int
	TotalRevenue string
	Orders       []digestOrderRow
}

type digestOrderRow struct {
	ID    string
	Time  string
	Items int
	Total string
}

// NotifyLowStock sends a low-stock alert for the product unless a live
// suppression record exists, then creates one. A suppression store read
// failure is treated as not-suppressed: a duplicate alert beats a dropped
// one.
func (s *notificationServiceImpl) NotifyLowStock(ctx context.Context, product models.Product) error {
	suppressed, err := s.store.IsSuppressed(ctx, product.ID)
	if err != nil {
		s.logger.Warn("Suppression lookup failed", zap.String("product_id", product.ID.String()), zap.Error(err))
	}
	if suppressed {
		s.logger.Debug("Low-stock alert suppressed", zap.String("product_id", product.ID.String()))
		return nil
	}

	data := lowStockEmailData{
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.StringFixed(2),
		Stock:       product.StockQuantity,
	}
	body, err := s.render(lowStockTemplate, data)
	if err != nil {
		return err
	}

	subject := "Low Stock Alert: " + product.Name
	if _, err := s.email.SendEmail(ctx, s.recipient, subject, body); err != nil {
		return fmt.Errorf("send low-stock alert: %w", err)
	}

	if err := s.store.Suppress(ctx, product.ID, s.suppressionTTL); err != nil {
		// Alert already went out; a failed marker only risks a duplicate.
		s.logger.Warn("Failed to record suppression", zap.String("product_id", product.ID.String()), zap.Error(err))
	}

	s.logger.Info("Low-stock alert sent",
		zap.String("product_id", product.ID.String()),
		zap.String("product", product.Name),
		zap.Int("stock", product.StockQuantity),
	)
	return nil
}

// SendDailyDigest aggregates the calendar day containing now (in the
// configured timezone) and emails the summary, unless no orders were placed
// that day.
func (s *notificationServiceImpl) SendDailyDigest(ctx context.Context, now time.Time) error {
	local := now.In(s.location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	orders, err := s.orderRepo.FindByDay(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("load daily orders: %w", err)
	}
	if len(orders) == 0 {
		s.logger.Info("No orders today, skipping sales digest", zap.String("day", dayStart.Format("2006-01-02")))
		return nil
	}

	revenue := decimal.Zero
	totalItems := 0
	rows := make([]digestOrderRow, 0, len(orders))
	for _, order := range orders {
		revenue = revenue.Add(order.Total)
		items := 0
		for _, item := range order.OrderItems {
			items += item.Quantity
		}
		totalItems += items
		rows = append(rows, digestOrderRow{
			ID:    order.ID.String(),
			Time:  order.CreatedAt.In(s.location).Format("15:04"),
			Items: items,
			Total: order.Total.StringFixed(2),
		})
	}

	data := digestEmailData{
		Date:         dayStart.Format("Jan 02, 2006"),
		TotalOrders:  len(orders),
		TotalItems:   totalItems,
		TotalRevenue: revenue.StringFixed(2),
		Orders:       rows,
	}
	body, err := s.render(digestTemplate, data)
	if err != nil {
		return err
	}

	subject := "Daily Sales Report - " + data.Date
	if _, err := s.email.SendEmail(ctx, s.recipient, subject, body); err != nil {
		return fmt.Errorf("send sales digest: %w", err)
	}

	s.logger.Info("Daily sales digest sent",
		zap.String("day", data.Date),
		zap.Int("orders", data.TotalOrders),
		zap.String("revenue", data.TotalRevenue),
	)
	return nil
}

func (s *notificationServiceImpl) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
