package repository

import (
	"context"

	"shopcart/internal/domain/model"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得（削除済みはNotFound）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

// 複数IDをまとめて取得。スナップショット用に削除済みも含める
func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []model.Product
	if err := r.db.WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}

	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// 商品の有効な選択肢
func (r *ProductGormRepository) ListVariations(ctx context.Context, productID int64) ([]model.Variation, error) {
	var vars []model.Variation
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("id asc").
		Find(&vars).Error; err != nil {
		return []model.Variation{}, err
	}
	return vars, nil
}
