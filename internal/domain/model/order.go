package model

import "time"

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// 注文。決済確定まではIsOrdered=false。
// OrderNumberは作成後に「YYYYMMDD + ID」で埋める。空でなければ一意。
type Order struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64       `gorm:"not null;index" json:"user_id"`
	PaymentID    *int64      `gorm:"index" json:"payment_id,omitempty"`
	OrderNumber  string      `gorm:"type:varchar(32);not null;default:'';uniqueIndex:uniq_orders_order_number,where:order_number <> ''" json:"order_number"`
	FirstName    string      `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName     string      `gorm:"type:varchar(50);not null" json:"last_name"`
	Phone        string      `gorm:"type:varchar(15);not null" json:"phone"`
	Email        string      `gorm:"type:varchar(50);not null" json:"email"`
	AddressLine1 string      `gorm:"type:varchar(50);not null" json:"address_line_1"`
	AddressLine2 string      `gorm:"type:varchar(50)" json:"address_line_2"`
	Country      string      `gorm:"type:varchar(50);not null" json:"country"`
	State        string      `gorm:"type:varchar(50);not null" json:"state"`
	City         string      `gorm:"type:varchar(50);not null" json:"city"`
	OrderNote    string      `gorm:"type:varchar(100)" json:"order_note"`
	OrderTotal   int64       `gorm:"not null" json:"order_total"`
	Tax          int64       `gorm:"not null" json:"tax"`
	IP           string      `gorm:"type:varchar(45)" json:"-"`
	Status       OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IsOrdered    bool        `gorm:"not null;default:false;index" json:"is_ordered"`
	CreatedAt    time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (o Order) FullName() string {
	return o.FirstName + " " + o.LastName
}
