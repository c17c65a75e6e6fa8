package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

type CartRepository interface {
	FindBySessionToken(ctx context.Context, sessionToken string) (model.Cart, error)
	// 無ければ作る
	GetOrCreateBySessionToken(ctx context.Context, sessionToken string) (model.Cart, error)
	AssignUser(ctx context.Context, cartID int64, userID int64) error
}
