package model

import "time"

// 注文明細のスナップショット。
// 価格・商品名・選択肢は確定時点の値を保存する（後の価格変更の影響を受けない）。
type OrderProduct struct {
	ID                  int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64       `gorm:"not null;index" json:"order_id"`
	PaymentID           int64       `gorm:"not null;index" json:"payment_id"`
	UserID              int64       `gorm:"not null;index" json:"user_id"`
	ProductID           int64       `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string      `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Quantity            int64       `gorm:"not null" json:"quantity"`
	ProductPrice        int64       `gorm:"not null" json:"product_price"`
	Ordered             bool        `gorm:"not null;default:false" json:"ordered"`
	Variations          []Variation `gorm:"many2many:order_product_variations;" json:"variations"`
	CreatedAt           time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
