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
	"github.com/stretchr/testify/assert"
)

func cartItemRows(id uuid.UUID, userID string, productID uuid.UUID, qty int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "created_at", "updated_at"}).
		AddRow(id, userID, productID, qty, now, now)
}

func TestCartFindByUserID_PreloadsProducts(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	itemID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cart_items" WHERE user_id = $1 ORDER BY created_at`)).
		WithArgs("user-1").
		WillReturnRows(cartItemRows(itemID, "user-1", productID, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(productID).
		WillReturnRows(productRows(productID, "Monitor", "299.99", 8))

	items, err := repo.FindByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	if assert.NotNil(t, items[0].Product) {
		assert.Equal(t, "Monitor", items[0].Product.Name)
	}
}

func TestCartFindByUserID_Empty(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cart_items"`)).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity"}))

	items, err := repo.FindByUserID(context.Background(), "user-2")
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartFindByUserAndProduct_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	productID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cart_items"`)).
		WithArgs("user-1", productID, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	item, err := repo.FindByUserAndProduct(context.Background(), "user-1", productID)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
	assert.Nil(t, item)
}

func TestCartCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	item := &models.CartItem{
		UserID:    "user-1",
		ProductID: uuid.New(),
		Quantity:  1,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "cart_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), item)
	assert.NoError(t, err)
}

func TestCartUpdateQuantity_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "cart_items" SET "quantity"=$1 WHERE id = $2`)).
		WithArgs(4, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateQuantity(context.Background(), id, 4)
	assert.NoError(t, err)
}

func TestCartUpdateQuantity_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "cart_items"`)).
		WithArgs(4, id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateQuantity(context.Background(), id, 4)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
}

func TestCartDelete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items"`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
}

func TestCartDeleteByUserID_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items" WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.DeleteByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
}
