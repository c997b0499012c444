package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	infra "freshleap/internal/infra/repository"
	repo "freshleap/internal/repository"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	assert.NoError(t, err)

	return gormDB, mock
}

// 決済確定後の減算はGREATESTで0未満に落とさない。
func TestInventoryGormRepository_DecreaseStockFloorZero_UsesGreatest(t *testing.T) {
	db, mock := newMockDB(t)
	r := infra.NewInventoryGormRepository(db)

	mock.ExpectExec(`UPDATE "products" SET "stock"=GREATEST\(stock - \$1, 0\),"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(int64(3), sqlmock.AnyArg(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.DecreaseStockFloorZero(context.Background(), 101, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryGormRepository_DecreaseStockFloorZero_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := infra.NewInventoryGormRepository(db)

	mock.ExpectExec(`UPDATE "products" SET "stock"=GREATEST\(stock - \$1, 0\),"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(int64(3), sqlmock.AnyArg(), int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.DecreaseStockFloorZero(context.Background(), 999, 3)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// 在庫が足りないときは減らさずfalseを返す。
func TestInventoryGormRepository_DecreaseStockIfEnough_NotEnough(t *testing.T) {
	db, mock := newMockDB(t)
	r := infra.NewInventoryGormRepository(db)

	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1,"updated_at"=\$2 WHERE id = \$3 AND stock >= \$4`).
		WithArgs(int64(5), sqlmock.AnyArg(), int64(101), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := r.DecreaseStockIfEnough(context.Background(), 101, 5)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInventoryGormRepository_IncreaseStock(t *testing.T) {
	db, mock := newMockDB(t)
	r := infra.NewInventoryGormRepository(db)

	mock.ExpectExec(`UPDATE "products" SET "stock"=stock \+ \$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(int64(2), sqlmock.AnyArg(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.IncreaseStock(context.Background(), 101, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryGormRepository_SetStock(t *testing.T) {
	db, mock := newMockDB(t)
	r := infra.NewInventoryGormRepository(db)

	mock.ExpectExec(`UPDATE "products" SET "stock"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(int64(7), sqlmock.AnyArg(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.SetStock(context.Background(), 101, 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
