package model

import "time"

// 在庫の増減履歴。決済確定で減らした分とキャンセルで戻した分を注文単位で残す。
// Deltaは符号付き（減算はマイナス）。
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	OrderID     int64     `gorm:"not null;default:0;index" json:"order_id"`
	ActorUserID int64     `gorm:"not null;index" json:"actor_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
