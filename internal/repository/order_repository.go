package repository

import (
	"context"
	"time"

	"shopcart/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page        int
	Limit       int
	Status      string
	UserID      *int64
	OrderNumber string
	Paid        *bool
	From        *time.Time
	To          *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	SetOrderNumber(ctx context.Context, orderID int64, orderNumber string) error
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 未決済（is_ordered=false）の注文を番号で探す
	FindUnpaidByNumber(ctx context.Context, userID int64, orderNumber string) (model.Order, error)
	// 決済済み（is_ordered=true）の注文を番号で探す
	FindPaidByNumber(ctx context.Context, orderNumber string) (model.Order, error)

	// payment紐付け + is_ordered=true + COMPLETED
	MarkPaid(ctx context.Context, orderID int64, paymentID int64) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
