package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

type PaymentRepository interface {
	// 同じ取引ID・同じ注文の決済が既にあれば ErrDuplicate
	Create(ctx context.Context, payment model.Payment) (model.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (model.Payment, error)
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
}
