package repository

import (
	"context"
	"errors"

	"shopcart/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// unique制約違反（同じ取引IDの決済など）
	ErrDuplicate = errors.New("duplicate")
)

// 商品カタログの参照だけを約束（カタログ管理はこのサービスの外）。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	ListVariations(ctx context.Context, productID int64) ([]model.Variation, error)
}
