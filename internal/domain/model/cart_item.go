package model

import "time"

// カートの明細
// 同じカート内で (商品, 選択肢の集合) が同じ明細は1行だけ。
type CartItem struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID     int64       `gorm:"not null;index" json:"cart_id"`
	ProductID  int64       `gorm:"not null;index" json:"product_id"`
	Quantity   int64       `gorm:"not null" json:"quantity"`
	IsActive   bool        `gorm:"not null;default:true" json:"is_active"`
	Variations []Variation `gorm:"many2many:cart_item_variations;" json:"variations"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
