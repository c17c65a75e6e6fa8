package repository

import (
	"context"

	"shopcart/internal/domain/model"

	"gorm.io/gorm"
)

type OrderProductGormRepository struct {
	db *gorm.DB
}

func NewOrderProductGormRepository(db *gorm.DB) *OrderProductGormRepository {
	return &OrderProductGormRepository{db: db}
}

// 明細と選択肢の紐付けをまとめて作る
func (r *OrderProductGormRepository) CreateBulk(ctx context.Context, items []model.OrderProduct) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Variations.*").Create(&items).Error
}

func (r *OrderProductGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	var items []model.OrderProduct
	err := r.db.WithContext(ctx).
		Preload("Variations").
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.OrderProduct{}, err
	}
	return items, nil
}
