package repository

import (
	"context"
	"time"

	"freshleap/internal/domain/model"
)

// 農家ダッシュボード用の注文一覧フィルタ
type FarmerOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// 決済sessionから注文を引く（同じsessionなら同じ注文を返す）
	FindByPaymentSessionID(ctx context.Context, sessionID string) (model.Order, bool, error)

	// 農家の商品を含む注文一覧
	ListContainingFarmer(ctx context.Context, farmerID int64, f FarmerOrderListFilter) ([]model.Order, int64, error)
}
