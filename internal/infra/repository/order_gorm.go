package repository

import (
	"context"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) SetOrderNumber(ctx context.Context, orderID int64, orderNumber string) error {
	return r.updateColumns(ctx, orderID, map[string]interface{}{"order_number": orderNumber})
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindUnpaidByNumber(ctx context.Context, userID int64, orderNumber string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND order_number = ? AND is_ordered = ? AND status <> ?", userID, orderNumber, false, model.OrderStatusCanceled).
		First(&o).Error
	if err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindPaidByNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ? AND is_ordered = ?", orderNumber, true).
		First(&o).Error
	if err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

// 未決済かつキャンセルされていない注文だけを決済済みにする
func (r *OrderGormRepository) MarkPaid(ctx context.Context, orderID int64, paymentID int64) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND is_ordered = ? AND status <> ?", orderID, false, model.OrderStatusCanceled).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"is_ordered": true,
			"status":     model.OrderStatusCompleted,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.updateColumns(ctx, orderID, map[string]interface{}{"status": status})
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	if f.OrderNumber != "" {
		q = q.Where("order_number = ?", f.OrderNumber)
	}
	if f.Paid != nil {
		q = q.Where("is_ordered = ?", *f.Paid)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) updateColumns(ctx context.Context, orderID int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(cols)

	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
