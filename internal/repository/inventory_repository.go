package repository

import (
	"context"

	"freshleap/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算（カート確定前のチェック用）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 決済確定後の減算。支払済みなので拒否できず、0未満にはしない。
	DecreaseStockFloorZero(ctx context.Context, productID int64, qty int64) error

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
