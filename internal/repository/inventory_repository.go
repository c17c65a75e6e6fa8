package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫を減算して減算後の値を返す（下限チェックなし。マイナスもあり得る）
	DecreaseStock(ctx context.Context, productID int64, qty int64) (int64, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
