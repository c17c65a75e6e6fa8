package usecase

import (
	"context"
	"time"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 請求先フォームの検証。失敗時は *ValidationError を返す
type BillingValidator interface {
	ValidateBilling(ctx context.Context, form BillingForm) error
}

// 注文確定の通知（メール送信サービスなど）。失敗しても注文には影響させない
type OrderNotifier interface {
	NotifyOrderConfirmed(ctx context.Context, n OrderConfirmedNotice) error
}

// 同じ取引IDの決済通知を同時に処理させないためのロック
type PaymentLock interface {
	// 取れたらtrue
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ID基盤から渡されるログインユーザー
type CheckoutUser struct {
	ID    int64
	Email string
}

// 通知に載せる内容
type OrderConfirmedNotice struct {
	UserID        int64             `json:"user_id"`
	Email         string            `json:"email"`
	FullName      string            `json:"full_name"`
	OrderNumber   string            `json:"order_number"`
	TransactionID string            `json:"transaction_id"`
	OrderTotal    int64             `json:"order_total"`
	Tax           int64             `json:"tax"`
	Items         []OrderItemOutput `json:"items"`
	ConfirmedAt   time.Time         `json:"confirmed_at"`
}
