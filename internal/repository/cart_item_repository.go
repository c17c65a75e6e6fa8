package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

// 明細の取得は常に Variations を読み込んだ状態で返す。
type CartItemRepository interface {
	ListActiveByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	ListByCartAndProduct(ctx context.Context, cartID int64, productID int64) ([]model.CartItem, error)
	// ユーザーに紐付いたカートの明細すべて
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindInCart(ctx context.Context, cartID int64, productID int64, cartItemID int64) (model.CartItem, error)

	// Variationsも一緒に紐付ける
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
}
