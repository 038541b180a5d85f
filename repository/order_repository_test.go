package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cartflow/models"
	"cartflow/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newOrderRepo(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	gormDB, mock := setupMockDB(t)
	products := repository.NewGormProductRepository(gormDB)
	return repository.NewGormOrderRepository(gormDB, products), mock
}

func TestCreateFromCart_Success(t *testing.T) {
	repo, mock := newOrderRepo(t)

	orderID := uuid.New()
	itemID := uuid.New()
	productID := uuid.New()
	userID := "user-1"
	total := decimal.RequireFromString("159.98")
	now := time.Now()

	items := []models.CartItem{
		{ID: uuid.New(), UserID: userID, ProductID: productID, Quantity: 2},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1 ORDER BY "products"."id" LIMIT $2 FOR UPDATE`)).
		WithArgs(productID, 1).
		WillReturnRows(productRows(productID, "Keyboard", "79.99", 10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(itemID))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WithArgs(2, productID, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items" WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1`)).
		WithArgs(orderID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at"}).
			AddRow(orderID, userID, "159.98", models.OrderStatusCompleted, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items" WHERE "order_items"."order_id" = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow(itemID, orderID, productID, 2, "79.99"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(productID).
		WillReturnRows(productRows(productID, "Keyboard", "79.99", 10))
	mock.ExpectCommit()

	placed, err := repo.CreateFromCart(context.Background(), userID, total, items)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, placed.Order.Status)
	assert.True(t, placed.Order.Total.Equal(total))
	assert.Len(t, placed.Order.OrderItems, 1)
	assert.Empty(t, placed.LowStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromCart_CollectsLowStockCrossing(t *testing.T) {
	repo, mock := newOrderRepo(t)

	orderID := uuid.New()
	itemID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	items := []models.CartItem{
		{ID: uuid.New(), UserID: "user-1", ProductID: productID, Quantity: 4},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
	// 7 units on hand, 4 requested: post-decrement stock of 3 crosses the
	// low-stock threshold.
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(productID, 1).
		WillReturnRows(productRows(productID, "Webcam", "59.99", 7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(itemID))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WithArgs(4, productID, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items"`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs(orderID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at"}).
			AddRow(orderID, "user-1", "239.96", models.OrderStatusCompleted, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items"`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow(itemID, orderID, productID, 4, "59.99"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WithArgs(productID).
		WillReturnRows(productRows(productID, "Webcam", "59.99", 3))
	mock.ExpectCommit()

	placed, err := repo.CreateFromCart(context.Background(), "user-1", decimal.RequireFromString("239.96"), items)
	assert.NoError(t, err)
	if assert.Len(t, placed.LowStock, 1) {
		assert.Equal(t, "Webcam", placed.LowStock[0].Name)
		assert.Equal(t, 3, placed.LowStock[0].StockQuantity)
	}
}

func TestCreateFromCart_InsufficientStockRollsBack(t *testing.T) {
	repo, mock := newOrderRepo(t)

	orderID := uuid.New()
	productID := uuid.New()

	items := []models.CartItem{
		{ID: uuid.New(), UserID: "user-1", ProductID: productID, Quantity: 5},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(productID, 1).
		WillReturnRows(productRows(productID, "Headphones", "149.99", 2))
	mock.ExpectRollback()

	placed, err := repo.CreateFromCart(context.Background(), "user-1", decimal.RequireFromString("749.95"), items)
	assert.Nil(t, placed)

	ise, ok := repository.IsInsufficientStock(err)
	if assert.True(t, ok) {
		assert.Equal(t, "Headphones", ise.ProductName)
		assert.Equal(t, 5, ise.Requested)
		assert.Equal(t, 2, ise.Available)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromCart_SecondItemFailureAbortsWholeOrder(t *testing.T) {
	repo, mock := newOrderRepo(t)

	orderID := uuid.New()
	firstItemID := uuid.New()
	firstProduct := uuid.New()
	secondProduct := uuid.New()

	items := []models.CartItem{
		{ID: uuid.New(), UserID: "user-1", ProductID: firstProduct, Quantity: 1},
		{ID: uuid.New(), UserID: "user-1", ProductID: secondProduct, Quantity: 3},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(firstProduct, 1).
		WillReturnRows(productRows(firstProduct, "Laptop", "999.99", 10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(firstItemID))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WithArgs(1, firstProduct, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(secondProduct, 1).
		WillReturnRows(productRows(secondProduct, "Webcam", "59.99", 2))
	mock.ExpectRollback()

	placed, err := repo.CreateFromCart(context.Background(), "user-1", decimal.RequireFromString("1179.96"), items)
	assert.Nil(t, placed)

	ise, ok := repository.IsInsufficientStock(err)
	if assert.True(t, ok) {
		assert.Equal(t, "Webcam", ise.ProductName)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDay_ReturnsWindow(t *testing.T) {
	repo, mock := newOrderRepo(t)

	loc, _ := time.LoadLocation("Asia/Karachi")
	dayStart := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	orderID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE created_at >= $1 AND created_at < $2`)).
		WithArgs(dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at"}).
			AddRow(orderID, "user-1", "42.00", models.OrderStatusCompleted, dayStart.Add(10*time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items"`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}))

	orders, err := repo.FindByDay(context.Background(), dayStart, dayEnd)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("42.00")))
}

func TestFindByIDAndUserID_NotFound(t *testing.T) {
	repo, mock := newOrderRepo(t)

	orderID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs(orderID, "user-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	order, err := repo.FindByIDAndUserID(context.Background(), orderID, "user-1")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
	assert.Nil(t, order)
}
