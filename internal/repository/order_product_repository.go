package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

type OrderProductRepository interface {
	CreateBulk(ctx context.Context, items []model.OrderProduct) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error)
}
