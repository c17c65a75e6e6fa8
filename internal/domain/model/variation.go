package model

import "time"

// 商品ごとの選択肢（例: size=L, color=red）。参照専用。
type Variation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	Category  string    `gorm:"type:varchar(100);not null" json:"category"`
	Value     string    `gorm:"type:varchar(100);not null" json:"value"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
