package model

import "time"

// 決済記録。TransactionIDは外部決済の取引ID（重複処理の判定キー）。
// OrderIDのuniqueで1注文1決済を保証する。
type Payment struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	OrderID       int64     `gorm:"not null;uniqueIndex" json:"order_id"`
	TransactionID string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"payment_id"`
	PaymentMethod string    `gorm:"type:varchar(100);not null" json:"payment_method"`
	AmountPaid    int64     `gorm:"not null" json:"amount_paid"`
	Status        string    `gorm:"type:varchar(100);not null" json:"status"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
